// Package liveserver serves the output directory over HTTP and pushes
// live-reload messages to connected browsers over a websocket.
package liveserver

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.trai.ch/tend/internal/adapters/watcher"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DevServer = (*Server)(nil)

//go:embed livereload.js
var clientScript []byte

const (
	shutdownTimeout = 5 * time.Second
	// rearmInterval is how often a removed output directory is checked for.
	rearmInterval = 100 * time.Millisecond
)

var scriptTag = []byte(`<script src="` + domain.LiveReloadScriptPath + `"></script>`)

// Server implements ports.DevServer.
type Server struct {
	logger    ports.Logger
	hub       *hub
	debouncer *watcher.Debouncer

	mu       sync.Mutex
	listener net.Listener
	done     chan error
}

// NewServer creates a Server. Reload requests arriving within
// watcher.DefaultDebounceWindow of each other are sent as one message.
func NewServer(logger ports.Logger) *Server {
	s := &Server{logger: logger, hub: newHub()}
	s.debouncer = watcher.NewDebouncer(watcher.DefaultDebounceWindow, func(paths []string) {
		s.hub.broadcast(Message{Type: MessageReload, Paths: paths})
	})
	return s
}

// Start binds port and serves dir until ctx is cancelled. Changes below dir
// reload connected browsers.
func (s *Server) Start(ctx context.Context, dir string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return zerr.With(zerr.Wrap(domain.ErrServerStartFailed, "already running"), "addr", s.listener.Addr().String())
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrServerStartFailed, err.Error()), "dir", dir)
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return zerr.With(zerr.Wrap(domain.ErrServerStartFailed, err.Error()), "port", port)
	}

	// A missing directory is watched once it appears.
	var w *watcher.Watcher
	if _, err := os.Stat(abs); err == nil {
		w = watcher.NewWatcher(s.logger)
		if err := w.Start(ctx, abs, nil); err != nil {
			_ = ln.Close()
			return zerr.With(zerr.Wrap(domain.ErrServerStartFailed, err.Error()), "dir", abs)
		}
	}

	srv := &http.Server{
		Handler:           s.routes(dir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.listener = ln
	s.done = make(chan error, 1)

	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()

	go func() {
		if w == nil {
			w = s.rearm(ctx, abs)
		}
		s.watchOutput(ctx, abs, w)
	}()

	go func() {
		<-ctx.Done()
		s.debouncer.Flush()
		s.hub.close()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(fmt.Sprintf("serving %s at http://localhost:%d", dir, ln.Addr().(*net.TCPAddr).Port))
	return nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Wait blocks until the server has shut down.
func (s *Server) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return domain.ErrServerNotStarted
	}
	err := <-done
	done <- err
	return err
}

// Reload schedules a full page reload for every connected browser.
func (s *Server) Reload(paths []string) {
	for _, p := range paths {
		s.debouncer.Add(p)
	}
}

// Inject pushes paths to browsers for in-place replacement.
func (s *Server) Inject(paths []string) {
	if len(paths) == 0 {
		return
	}
	s.hub.broadcast(Message{Type: MessageInject, Paths: paths})
}

// Clients returns the number of connected browsers.
func (s *Server) Clients() int {
	return s.hub.count()
}

// watchOutput schedules a reload for every change below dir. When dir itself
// is removed or renamed away, as clean does, the watch is re-armed once it
// exists again.
func (s *Server) watchOutput(ctx context.Context, dir string, w *watcher.Watcher) {
	for w != nil {
		gone := s.forward(ctx, dir, w)
		_ = w.Stop()
		for range w.Events() {
		}
		if !gone {
			return
		}
		w = s.rearm(ctx, dir)
	}
}

func (s *Server) forward(ctx context.Context, dir string, w *watcher.Watcher) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-w.Events():
			if !ok {
				return false
			}
			if ev.Path == dir {
				if ev.Operation.Deleted() || ev.Operation == ports.OpRename {
					s.debouncer.Add(".")
					return true
				}
				continue
			}
			if rel, err := filepath.Rel(dir, ev.Path); err == nil {
				s.debouncer.Add(filepath.ToSlash(rel))
			}
		}
	}
}

// rearm waits for dir to exist and watches it. It returns nil once ctx is done.
func (s *Server) rearm(ctx context.Context, dir string) *watcher.Watcher {
	ticker := time.NewTicker(rearmInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			w := watcher.NewWatcher(s.logger)
			if err := w.Start(ctx, dir, nil); err != nil {
				continue
			}
			// Files written before the watch was armed were missed.
			s.debouncer.Add(".")
			return w
		}
	}
}

func (s *Server) routes(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)

	mux := http.NewServeMux()
	mux.Handle(domain.LiveReloadPath, s.hub)
	mux.HandleFunc(domain.LiveReloadScriptPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(clientScript)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}
		if path.Ext(name) != ".html" || !serveHTML(w, r, root, name) {
			w.Header().Set("Cache-Control", "no-cache")
			files.ServeHTTP(w, r)
		}
	})
	return mux
}

// serveHTML writes the page with the live-reload script added. It returns
// false when the file cannot be read so the caller can fall back.
func serveHTML(w http.ResponseWriter, r *http.Request, root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	page, err := io.ReadAll(f)
	if err != nil {
		return false
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(injectScript(page)))
	return true
}

// injectScript places the client script before the closing body tag, or at
// the end of documents without one.
func injectScript(page []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(page), []byte("</body>"))
	if idx < 0 {
		return append(page, scriptTag...)
	}
	out := make([]byte, 0, len(page)+len(scriptTag))
	out = append(out, page[:idx]...)
	out = append(out, scriptTag...)
	return append(out, page[idx:]...)
}
