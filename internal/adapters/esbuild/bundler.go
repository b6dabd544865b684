// Package esbuild implements script bundling and CSS vendor prefixing on top of esbuild.
package esbuild

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Bundler = (*Bundler)(nil)

// Bundler bundles an entry script and its imports into one file with an
// external source map.
type Bundler struct {
	target api.Target
}

// NewBundler creates a Bundler emitting ES2015 output.
func NewBundler() *Bundler {
	return &Bundler{target: api.ES2015}
}

// Bundle builds req.Entry. Nothing is written to disk.
func (b *Bundler) Bundle(ctx context.Context, req ports.BundleRequest) (ports.BundleResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.BundleResult{}, err
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{req.Entry},
		Outfile:       req.Outfile,
		AbsWorkingDir: filepath.Dir(req.Entry),
		Bundle:        true,
		Write:         false,
		Sourcemap:     api.SourceMapLinked,
		Target:        b.target,
		LogLevel:      api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		return ports.BundleResult{}, zerr.With(
			zerr.Wrap(domain.ErrBundleFailed, diagnostics(result.Errors)),
			"entry", req.Entry,
		)
	}

	var out ports.BundleResult
	for _, file := range result.OutputFiles {
		if strings.HasSuffix(file.Path, ".map") {
			out.SourceMap = file.Contents
		} else {
			out.Code = file.Contents
		}
	}
	if out.Code == nil {
		return ports.BundleResult{}, zerr.With(
			zerr.Wrap(domain.ErrBundleFailed, "no output produced"),
			"entry", req.Entry,
		)
	}

	return out, nil
}

// diagnostics renders esbuild messages as text, one message per paragraph.
func diagnostics(msgs []api.Message) string {
	formatted := api.FormatMessages(msgs, api.FormatMessagesOptions{Kind: api.ErrorMessage})
	return strings.TrimSpace(strings.Join(formatted, ""))
}
