// Package sass compiles stylesheets through the embedded Dart Sass protocol.
package sass

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StyleCompiler = (*Compiler)(nil)

const (
	// DefaultBinary is the Dart Sass executable looked up on PATH.
	DefaultBinary = "sass"

	compileTimeout = 30 * time.Second
)

// Compiler implements ports.StyleCompiler. The Dart Sass process is started
// on first use and reused for every later compilation.
type Compiler struct {
	binary string
	logger ports.Logger

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewCompiler creates a Compiler running binary. Sass @warn and deprecation
// messages are forwarded to logger.
func NewCompiler(binary string, logger ports.Logger) *Compiler {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Compiler{binary: binary, logger: logger}
}

// Compile compiles req.Entry to compressed CSS with an embedded-sources map.
func (c *Compiler) Compile(ctx context.Context, req ports.StyleRequest) (ports.StyleResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.StyleResult{}, err
	}

	source, err := os.ReadFile(req.Entry)
	if err != nil {
		return ports.StyleResult{}, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", req.Entry)
	}

	t, err := c.start()
	if err != nil {
		return ports.StyleResult{}, err
	}

	res, err := t.Execute(godartsass.Args{
		Source:                  string(source),
		URL:                     fileURL(req.Entry),
		SourceSyntax:            godartsass.SourceSyntaxSCSS,
		OutputStyle:             godartsass.OutputStyleCompressed,
		EnableSourceMap:         true,
		SourceMapIncludeSources: true,
		IncludePaths:            req.IncludePaths,
	})
	if err != nil {
		var sassErr godartsass.SassError
		if errors.As(err, &sassErr) {
			return ports.StyleResult{}, zerr.With(
				zerr.Wrap(domain.ErrStyleCompileFailed, sassErr.Message),
				"file", req.Entry,
			)
		}
		if errors.Is(err, godartsass.ErrShutdown) {
			c.reset(t)
		}
		return ports.StyleResult{}, zerr.With(zerr.Wrap(err, domain.ErrCompilerUnavailable.Error()), "file", req.Entry)
	}

	return ports.StyleResult{CSS: []byte(res.CSS), SourceMap: []byte(res.SourceMap)}, nil
}

// Close stops the Dart Sass process if it was started.
func (c *Compiler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transpiler == nil {
		return nil
	}
	err := c.transpiler.Close()
	c.transpiler = nil
	if errors.Is(err, godartsass.ErrShutdown) {
		return nil
	}
	return err
}

func (c *Compiler) start() (*godartsass.Transpiler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transpiler != nil {
		return c.transpiler, nil
	}

	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: c.binary,
		Timeout:                  compileTimeout,
		LogEventHandler:          c.logEvent,
	})
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrCompilerUnavailable, err.Error()), "binary", c.binary)
	}
	c.transpiler = t
	return t, nil
}

// reset drops a transpiler whose process has died so the next call restarts it.
func (c *Compiler) reset(t *godartsass.Transpiler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transpiler == t {
		c.transpiler = nil
	}
}

func (c *Compiler) logEvent(e godartsass.LogEvent) {
	if c.logger == nil {
		return
	}
	switch e.Type {
	case godartsass.LogEventTypeDebug:
		c.logger.Info(e.Message)
	case godartsass.LogEventTypeDeprecated:
		c.logger.Warn(fmt.Sprintf("sass deprecation (%s): %s", e.DeprecationType, e.Message))
	default:
		c.logger.Warn(e.Message)
	}
}

func fileURL(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}
