package updater

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEndpoint(t *testing.T, url string) {
	t.Helper()
	origURL, origClient := releaseEndpoint, httpClient
	releaseEndpoint = url
	httpClient = &http.Client{}
	t.Cleanup(func() {
		releaseEndpoint = origURL
		httpClient = origClient
	})
}

func TestIsNewer(t *testing.T) {
	tests := []struct {
		current, latest string
		want            bool
	}{
		{"1.0.0", "1.0.1", true},
		{"1.0.0", "1.1.0", true},
		{"1.0.0", "2.0.0", true},
		{"1.0.1", "1.0.0", false},
		{"1.0.0", "1.0.0", false},
		{"1.0", "1.0.1", true},
		{"1.2.3", "1.10.0", true},
		{"dev", "1.0.0", false},
		{"", "1.0.0", false},
		{"1.0.0", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.current+"_vs_"+tt.latest, func(t *testing.T) {
			assert.Equal(t, tt.want, isNewer(tt.current, tt.latest))
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	assert.Equal(t, "1.2.3", normalizeVersion("v1.2.3"))
	assert.Equal(t, "1.2.3", normalizeVersion("1.2.3"))
	assert.Equal(t, "dev", normalizeVersion("dev"))
}

func TestParseIntSafe(t *testing.T) {
	assert.Equal(t, 12, parseIntSafe("12"))
	assert.Equal(t, 12, parseIntSafe("12-rc1"))
	assert.Equal(t, 0, parseIntSafe("rc1"))
	assert.Equal(t, 0, parseIntSafe(""))
}

func TestBuildAssetName(t *testing.T) {
	got := buildAssetName("1.2.3")
	assert.True(t, strings.HasPrefix(got, "bmad-mcp_1.2.3_"))
	assert.Contains(t, got, runtime.GOOS)
	assert.Contains(t, got, runtime.GOARCH)
	if runtime.GOOS == "windows" {
		assert.True(t, strings.HasSuffix(got, ".zip"))
	} else {
		assert.True(t, strings.HasSuffix(got, ".tar.gz"))
	}
}

func TestCheckVersion_UpdateAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"tag_name":"v2.0.0","html_url":"https://example.com/release"}`)
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	result := CheckVersion("1.0.0")
	require.NotNil(t, result)
	assert.True(t, result.UpdateAvailable)
	assert.Equal(t, "1.0.0", result.CurrentVersion)
	assert.Equal(t, "2.0.0", result.LatestVersion)
	assert.Equal(t, "https://example.com/release", result.ReleaseURL)
}

func TestCheckVersion_AlreadyLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.0.0"}`)
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	result := CheckVersion("1.0.0")
	assert.False(t, result.UpdateAvailable)
}

func TestCheckVersion_DevBuildNeverUpdates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v9.9.9"}`)
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	result := CheckVersion("dev")
	assert.False(t, result.UpdateAvailable)
}

func TestCheckVersion_NetworkFailureIsSilent(t *testing.T) {
	withEndpoint(t, "http://127.0.0.1:1") // nothing listens here

	result := CheckVersion("1.0.0")
	require.NotNil(t, result)
	assert.False(t, result.UpdateAvailable)
	assert.Empty(t, result.LatestVersion)
}

func TestCheckVersion_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	result := CheckVersion("1.0.0")
	assert.False(t, result.UpdateAvailable)
}

func TestSelfUpdate_AlreadyLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v1.0.0"}`)
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	err := SelfUpdate("1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already at latest version")
}

func TestSelfUpdate_NoAssetForPlatform(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"tag_name":"v2.0.0","assets":[{"name":"bmad-mcp_2.0.0_plan9_mips.tar.gz","browser_download_url":"https://example.com/x"}]}`)
	}))
	defer srv.Close()
	withEndpoint(t, srv.URL)

	err := SelfUpdate("1.0.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no release asset found")
}

func tarGz(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o755, Size: int64(len(data))}))
	_, err := tw.Write(data)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestExtractFromTarGz(t *testing.T) {
	archive := tarGz(t, "bmad-mcp", []byte("binary-bytes"))

	got, err := extractFromTarGz(bytes.NewReader(archive))
	require.NoError(t, err)
	assert.Equal(t, []byte("binary-bytes"), got)
}

func TestExtractFromTarGz_NestedPath(t *testing.T) {
	archive := tarGz(t, "dist/bmad-mcp", []byte("nested"))

	got, err := extractFromTarGz(bytes.NewReader(archive))
	require.NoError(t, err)
	assert.Equal(t, []byte("nested"), got)
}

func TestExtractFromTarGz_BinaryMissing(t *testing.T) {
	archive := tarGz(t, "README.md", []byte("docs"))

	_, err := extractFromTarGz(bytes.NewReader(archive))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in archive")
}

func TestExtractBinary_ZipUnsupported(t *testing.T) {
	_, err := extractBinary(bytes.NewReader(nil), "bmad-mcp_1.0.0_windows_amd64.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not supported")
}
