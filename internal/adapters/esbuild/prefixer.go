package esbuild

import (
	"encoding/base64"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Prefixer = (*Prefixer)(nil)

// DefaultEngines are the browsers prefixes are generated for.
var DefaultEngines = []api.Engine{
	{Name: api.EngineChrome, Version: "58"},
	{Name: api.EngineEdge, Version: "16"},
	{Name: api.EngineFirefox, Version: "57"},
	{Name: api.EngineIOS, Version: "11"},
	{Name: api.EngineSafari, Version: "11"},
}

// Prefixer adds vendor prefixes to compiled CSS.
type Prefixer struct {
	engines []api.Engine
}

// NewPrefixer creates a Prefixer for DefaultEngines.
func NewPrefixer() *Prefixer {
	return &Prefixer{engines: DefaultEngines}
}

// Prefix rewrites req.CSS for the configured engines. When req.SourceMap is
// set, the emitted map points through it to the original stylesheets.
func (p *Prefixer) Prefix(req ports.PrefixRequest) (ports.PrefixResult, error) {
	input := string(req.CSS)
	if len(req.SourceMap) > 0 {
		input += "\n/*# sourceMappingURL=data:application/json;base64," +
			base64.StdEncoding.EncodeToString(req.SourceMap) + " */\n"
	}

	result := api.Transform(input, api.TransformOptions{
		Loader:           api.LoaderCSS,
		Sourcefile:       req.Filename,
		Sourcemap:        api.SourceMapExternal,
		MinifyWhitespace: true,
		Engines:          p.engines,
		LogLevel:         api.LogLevelSilent,
	})

	if len(result.Errors) > 0 {
		return ports.PrefixResult{}, zerr.With(
			zerr.Wrap(domain.ErrPrefixFailed, diagnostics(result.Errors)),
			"file", req.Filename,
		)
	}

	return ports.PrefixResult{CSS: result.Code, SourceMap: result.Map}, nil
}
