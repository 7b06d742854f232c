package sources

import (
	"fmt"

	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/httpclient"
)

// defaultHandlerFactory is the default implementation of HandlerFactory
type defaultHandlerFactory struct {
	client        httpclient.Client
	releaseClient httpclient.Client
	mod           config.ModConfig
}

var _ HandlerFactory = (*defaultHandlerFactory)(nil)

// FactoryOption configures the handler factory
type FactoryOption func(*defaultHandlerFactory)

// WithReleaseAPIClient sets a dedicated HTTP client for the release-API
// handler. The bearer credential belongs on this client only; every other
// handler keeps using the shared unauthenticated client.
func WithReleaseAPIClient(client httpclient.Client) FactoryOption {
	return func(f *defaultHandlerFactory) {
		f.releaseClient = client
	}
}

// NewHandlerFactory creates a new source handler factory.
// Handlers share the given HTTP client and match assets against the given
// mod identity; the release-API handler can be given its own client via
// WithReleaseAPIClient.
func NewHandlerFactory(client httpclient.Client, mod config.ModConfig, opts ...FactoryOption) HandlerFactory {
	f := &defaultHandlerFactory{
		client:        client,
		releaseClient: client,
		mod:           mod,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateHandler creates a source handler for the given source type
func (f *defaultHandlerFactory) CreateHandler(sourceType string) (SourceHandler, error) {
	switch sourceType {
	case config.SourceTypeGitHub:
		return NewGitHubSourceHandler(f.releaseClient, f.mod), nil
	case config.SourceTypeStatic:
		return NewStaticSourceHandler(f.client), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
