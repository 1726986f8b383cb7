package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSPA(t *testing.T) (dir, index, css string) {
	t.Helper()
	dir = t.TempDir()
	index = `<!DOCTYPE html><html><body>Dashboard</body></html>`
	css = `body { color: red; }`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "style.css"), []byte(css), 0o644))
	return dir, index, css
}

func TestServeSPA(t *testing.T) {
	dir, index, css := writeSPA(t)
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		method       string
		path         string
		wantStatus   int
		wantBody     string
		wantCacheHdr string
	}{
		{
			name:         "hashed asset",
			path:         "/assets/style.css",
			wantStatus:   http.StatusOK,
			wantBody:     css,
			wantCacheHdr: "public, max-age=31536000, immutable",
		},
		{
			name:         "client side route falls back to index",
			path:         "/clusters/dev/pods",
			wantStatus:   http.StatusOK,
			wantBody:     index,
			wantCacheHdr: "no-cache, must-revalidate",
		},
		{
			name:         "root",
			path:         "/",
			wantStatus:   http.StatusOK,
			wantBody:     index,
			wantCacheHdr: "no-cache, must-revalidate",
		},
		{
			name:       "unknown api route",
			path:       "/api/nothing",
			wantStatus: http.StatusNotFound,
			wantBody:   "NOT_FOUND",
		},
		{
			name:       "post outside the api",
			method:     http.MethodPost,
			path:       "/clusters",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.NoRoute(ServeSPA("/", dir))

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			if tt.wantCacheHdr != "" {
				assert.Equal(t, tt.wantCacheHdr, w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestServeSPA_NonExistentDirectory(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.NoRoute(ServeSPA("/", "/non/existent/directory"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEqual(t, http.StatusOK, w.Code)
}

func TestCacheControl(t *testing.T) {
	assert.Equal(t, "public, max-age=3600, must-revalidate", cacheControl("/favicon.ico"))
	assert.Equal(t, "no-cache, must-revalidate", cacheControl("/about.html"))
}
