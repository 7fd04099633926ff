package serve_preview

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/chtlls/pkg/preview"
	"github.com/walteh/chtlls/pkg/settings"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServePreview(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "index.chtl")
	require.NoError(t, os.WriteFile(src, []byte("html { }"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html><body>compiled</body></html>"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	servers := make(chan *preview.Server, 1)
	me := &Handler{
		dir:      dir,
		host:     "127.0.0.1",
		port:     0,
		noInject: true,
		fs:       afero.NewOsFs(),
		ready:    func(s *preview.Server) { servers <- s },
	}

	done := make(chan error, 1)
	go func() { done <- me.Run(ctx) }()

	var srv *preview.Server
	select {
	case srv = <-servers:
	case err := <-done:
		t.Fatalf("preview exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview server never became ready")
	}

	status, body := get(t, srv.PreviewURL(src))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<html><body>compiled</body></html>", body)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html><body>recompiled</body></html>"), 0o644))
	assert.Eventually(t, func() bool {
		resp, err := http.Get(srv.PreviewURL(src))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		return err == nil && string(body) == "<html><body>recompiled</body></html>"
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("preview did not stop")
	}
}

func TestOptions(t *testing.T) {
	s := settings.Default()

	me := &Handler{port: -1}
	assert.Equal(t, preview.Options{Host: "localhost", Port: 3000, InjectReload: true}, me.options(s))

	me = &Handler{host: "0.0.0.0", port: 8080, noInject: true}
	assert.Equal(t, preview.Options{Host: "0.0.0.0", Port: 8080, InjectReload: false}, me.options(s))
}
