package liveserver_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/liveserver"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func startServer(t *testing.T, files map[string]string) (*liveserver.Server, string, context.CancelFunc) {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}

	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(t.Context())
	s := liveserver.NewServer(log)
	require.NoError(t, s.Start(ctx, dir, 0))
	t.Cleanup(func() {
		cancel()
		_ = s.Wait()
	})
	return s, dir, cancel
}

func get(t *testing.T, s *liveserver.Server, path string) string {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, "http://"+s.Addr()+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func dial(t *testing.T, s *liveserver.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(t.Context(), "ws://"+s.Addr()+domain.LiveReloadPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	require.Eventually(t, func() bool { return s.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestServer_InjectsClientScript(t *testing.T) {
	s, _, _ := startServer(t, map[string]string{
		"index.html":     "<html><body><h1>hi</h1></body></html>",
		"about.html":     "<p>no body tag</p>",
		"css/styles.css": "h1{color:red}",
	})

	tag := `<script src="` + domain.LiveReloadScriptPath + `"></script>`
	assert.Equal(t, "<html><body><h1>hi</h1>"+tag+"</body></html>", get(t, s, "/"))
	assert.Equal(t, "<p>no body tag</p>"+tag, get(t, s, "/about.html"))
	assert.Equal(t, "h1{color:red}", get(t, s, "/css/styles.css"))
	assert.Contains(t, get(t, s, domain.LiveReloadScriptPath), domain.LiveReloadPath)
}

func TestServer_InjectMessage(t *testing.T) {
	s, _, _ := startServer(t, nil)
	conn := dial(t, s)

	s.Inject([]string{"sw.js", "sw.js.map"})

	var msg liveserver.Message
	require.NoError(t, wsjson.Read(t.Context(), conn, &msg))
	assert.Equal(t, liveserver.Message{Type: liveserver.MessageInject, Paths: []string{"sw.js", "sw.js.map"}}, msg)
}

func TestServer_ReloadIsCoalesced(t *testing.T) {
	s, _, _ := startServer(t, nil)
	conn := dial(t, s)

	s.Reload([]string{"index.html"})
	s.Reload([]string{"css/styles.css", "index.html"})

	var msg liveserver.Message
	require.NoError(t, wsjson.Read(t.Context(), conn, &msg))
	assert.Equal(t, liveserver.MessageReload, msg.Type)
	assert.Equal(t, []string{"css/styles.css", "index.html"}, msg.Paths)
}

func readMessage(t *testing.T, conn *websocket.Conn) liveserver.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	var msg liveserver.Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func TestServer_OutputChangeReloads(t *testing.T) {
	s, dir, _ := startServer(t, map[string]string{"index.html": "<h1>v1</h1>"})
	conn := dial(t, s)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>v2</h1>"), 0o600))

	msg := readMessage(t, conn)
	assert.Equal(t, liveserver.MessageReload, msg.Type)
	assert.Contains(t, msg.Paths, "index.html")
}

func TestServer_OutputRecreatedAfterCleanReloads(t *testing.T) {
	s, dir, _ := startServer(t, map[string]string{"css/styles.css": "h1{}"})
	conn := dial(t, s)

	require.NoError(t, os.RemoveAll(dir))
	assert.Equal(t, liveserver.MessageReload, readMessage(t, conn).Type)

	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>back</h1>"), 0o600))
	assert.Equal(t, liveserver.MessageReload, readMessage(t, conn).Type)
}

func TestServer_MissingOutputIsWatchedOnceCreated(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")

	log := mocks.NewMockLogger(gomock.NewController(t))
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	ctx, cancel := context.WithCancel(t.Context())
	s := liveserver.NewServer(log)
	require.NoError(t, s.Start(ctx, dir, 0))
	t.Cleanup(func() {
		cancel()
		_ = s.Wait()
	})
	conn := dial(t, s)

	require.NoError(t, os.MkdirAll(dir, 0o750))
	assert.Equal(t, liveserver.MessageReload, readMessage(t, conn).Type)
}

func TestServer_ShutdownClosesClients(t *testing.T) {
	s, _, cancel := startServer(t, nil)
	conn := dial(t, s)

	cancel()
	require.NoError(t, s.Wait())

	_, _, err := conn.Read(t.Context())
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))
}

func TestServer_PortInUse(t *testing.T) {
	s, _, _ := startServer(t, nil)
	_, portStr, err := net.SplitHostPort(s.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	other := liveserver.NewServer(nil)
	err = other.Start(t.Context(), t.TempDir(), port)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerStartFailed)
}

func TestServer_WaitBeforeStart(t *testing.T) {
	assert.ErrorIs(t, liveserver.NewServer(nil).Wait(), domain.ErrServerNotStarted)
}
