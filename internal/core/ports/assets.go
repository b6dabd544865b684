package ports

import "context"

//go:generate mockgen -source=assets.go -destination=mocks/mock_assets.go -package=mocks

// StyleRequest describes one stylesheet compilation.
type StyleRequest struct {
	// Entry is the absolute path of the stylesheet.
	Entry string
	// IncludePaths are absolute directories searched for partials.
	IncludePaths []string
}

// StyleResult holds compressed CSS and its source map.
type StyleResult struct {
	CSS       []byte
	SourceMap []byte
}

// StyleCompiler compiles Sass sources to CSS.
type StyleCompiler interface {
	// Compile compiles the request. Errors in the stylesheet itself are
	// reported joined with domain.ErrStyleCompileFailed.
	Compile(ctx context.Context, req StyleRequest) (StyleResult, error)
	// Close releases the compiler process.
	Close() error
}

// PrefixRequest describes CSS that needs vendor prefixes.
type PrefixRequest struct {
	CSS []byte
	// SourceMap is the map of CSS back to its sources. It may be empty.
	SourceMap []byte
	// Filename is the output file name, used to name the emitted map.
	Filename string
}

// PrefixResult holds prefixed CSS and a source map chained to the original sources.
type PrefixResult struct {
	CSS       []byte
	SourceMap []byte
}

// Prefixer adds vendor prefixes for the configured browser targets.
type Prefixer interface {
	Prefix(req PrefixRequest) (PrefixResult, error)
}

// BundleRequest describes one script bundle.
type BundleRequest struct {
	// Entry is the absolute path of the entry script.
	Entry string
	// Outfile is the absolute path the bundle will be written to.
	Outfile string
}

// BundleResult holds the bundled script and its external source map.
// Code ends with a sourceMappingURL comment naming the map relative to Outfile.
type BundleResult struct {
	Code      []byte
	SourceMap []byte
}

// Bundler bundles an entry script together with everything it imports.
type Bundler interface {
	Bundle(ctx context.Context, req BundleRequest) (BundleResult, error)
}
