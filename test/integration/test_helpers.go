//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tee-studio/internal/app"
	"tee-studio/internal/config"
)

const (
	adminUsername = "root"
	adminEmail    = "root@example.com"
	adminPassword = "admin-pass"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	webRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(webRoot, "index.html"), []byte("<html>tee studio</html>"), 0o644))

	return &config.Config{
		ServerPort:              "0",
		ServerReadHeaderTimeout: 5 * time.Second,
		ServerWriteTimeout:      30 * time.Second,
		ServerIdleTimeout:       time.Minute,
		RequestTimeout:          10 * time.Second,
		JWTSecret:               "integration-secret",
		JWTAccessTTL:            15 * time.Minute,
		JWTRefreshTTL:           24 * time.Hour,
		BcryptCost:              4,
		CookieSecure:            false,
		CORSOrigins:             []string{"http://localhost:5173"},
		RateLimitRPM:            1000,
		AuthRateLimitRPM:        1000,
		MaxUploadSize:           1 << 20,
		AllowedMIMETypes:        []string{"image/png", "image/jpeg", "image/webp"},
		StorageDriver:           config.StorageDriverLocal,
		StorageRoot:             t.TempDir(),
		PublicBaseURL:           "http://localhost/uploads",
		WebRoot:                 webRoot,
		LogLevel:                "error",
		LogFormat:               "json",
		AdminUsername:           adminUsername,
		AdminEmail:              adminEmail,
		AdminPassword:           adminPassword,
	}
}

func newServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	require.NoError(t, cfg.Validate())

	application, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(application.Close)

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server
}

// newClient returns a client that keeps cookies and does not follow
// redirects, so guard responses can be inspected.
func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doJSON(t *testing.T, client *http.Client, method string, url string, payload any) (*http.Response, map[string]any) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&parsed)
	return resp, parsed
}

func login(t *testing.T, client *http.Client, serverURL string, username string, password string) string {
	t.Helper()

	resp, body := doJSON(t, client, http.MethodPost, serverURL+"/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)
	return token
}
