package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfr-mod/update-server/internal/config"
	"github.com/sfr-mod/update-server/internal/httpclient"
)

func TestNewHandlerFactory(t *testing.T) {
	t.Parallel()

	factory := NewHandlerFactory(httpclient.NewDefaultClient(0), config.ModConfig{Identifier: "SFR"})
	assert.NotNil(t, factory)
}

func TestDefaultHandlerFactory_CreateHandler(t *testing.T) {
	t.Parallel()

	factory := NewHandlerFactory(httpclient.NewDefaultClient(0), config.ModConfig{Identifier: "SFR"})

	tests := []struct {
		name          string
		sourceType    string
		expectError   bool
		expectedType  interface{}
		errorContains string
	}{
		{
			name:         "github source type",
			sourceType:   config.SourceTypeGitHub,
			expectError:  false,
			expectedType: &githubSourceHandler{},
		},
		{
			name:         "static source type",
			sourceType:   config.SourceTypeStatic,
			expectError:  false,
			expectedType: &staticSourceHandler{},
		},
		{
			name:          "unsupported source type",
			sourceType:    "unsupported",
			expectError:   true,
			errorContains: "unsupported source type",
		},
		{
			name:          "empty source type",
			sourceType:    "",
			expectError:   true,
			errorContains: "unsupported source type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, err := factory.CreateHandler(tt.sourceType)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, handler)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, handler)
				assert.IsType(t, tt.expectedType, handler)
			}
		})
	}
}

func TestHandlerFactory_CredentialOnlyReachesReleaseAPI(t *testing.T) {
	t.Parallel()

	var staticAuth, githubAuth string

	staticServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		staticAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version": "1.0.0", "downloadUrl": "https://x/sfr.zip"}`))
	}))
	t.Cleanup(staticServer.Close)

	githubServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		githubAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tag_name": "v1.0.0",
			"published_at": "2024-01-01T00:00:00Z",
			"assets": [{"name": "sfr.zip", "size": 1, "browser_download_url": "https://x/sfr.zip"}]
		}`))
	}))
	t.Cleanup(githubServer.Close)

	factory := NewHandlerFactory(
		httpclient.NewDefaultClient(0),
		config.ModConfig{Identifier: "SFR", PackageExtension: ".zip"},
		WithReleaseAPIClient(httpclient.NewDefaultClient(0, httpclient.WithAuthToken("secret-token"))),
	)

	staticHandler, err := factory.CreateHandler(config.SourceTypeStatic)
	require.NoError(t, err)
	_, err = staticHandler.Fetch(context.Background(), &config.SourceConfig{
		Name: "Mirror Metadata", Type: config.SourceTypeStatic, Endpoint: staticServer.URL, Priority: 2, Enabled: true,
	})
	require.NoError(t, err)

	githubHandler, err := factory.CreateHandler(config.SourceTypeGitHub)
	require.NoError(t, err)
	_, err = githubHandler.Fetch(context.Background(), &config.SourceConfig{
		Name: "GitHub Releases", Type: config.SourceTypeGitHub, Endpoint: githubServer.URL, Priority: 1, Enabled: true,
	})
	require.NoError(t, err)

	assert.Empty(t, staticAuth, "the static source must never see the bearer credential")
	assert.Equal(t, "Bearer secret-token", githubAuth)
}

func TestHandlerFactory_NoReleaseClientFallsBackToShared(t *testing.T) {
	t.Parallel()

	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tag_name": "v1.0.0",
			"published_at": "2024-01-01T00:00:00Z",
			"assets": [{"name": "sfr.zip", "size": 1, "browser_download_url": "https://x/sfr.zip"}]
		}`))
	}))
	t.Cleanup(server.Close)

	factory := NewHandlerFactory(httpclient.NewDefaultClient(0), config.ModConfig{Identifier: "SFR"})

	handler, err := factory.CreateHandler(config.SourceTypeGitHub)
	require.NoError(t, err)
	_, err = handler.Fetch(context.Background(), &config.SourceConfig{
		Name: "GitHub Releases", Type: config.SourceTypeGitHub, Endpoint: server.URL, Priority: 1, Enabled: true,
	})
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
}
