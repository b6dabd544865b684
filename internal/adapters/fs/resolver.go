// Package fs implements filesystem adapters: source pattern resolution and
// content fingerprinting.
package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.InputResolver = (*Resolver)(nil)

// Resolver implements the InputResolver interface using doublestar globs.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve expands patterns relative to root in declaration order.
func (r *Resolver) Resolve(root string, patterns []string) ([]ports.SourceFile, error) {
	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var files []ports.SourceFile

	for _, raw := range patterns {
		pattern := normalizePattern(raw)
		if pattern == "" || strings.HasPrefix(pattern, "/") || hasParentSegment(pattern) ||
			!doublestar.ValidatePattern(pattern) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidGlob, raw), "pattern", raw)
		}

		matches, err := r.match(fsys, pattern)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInputResolutionFailed.Error()), "pattern", raw)
		}

		base := staticBase(pattern)
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, ports.SourceFile{
				Path: filepath.Join(root, filepath.FromSlash(m)),
				Rel:  relativeTo(base, m),
			})
		}
	}

	return files, nil
}

// match returns the slash-separated paths pattern matches, sorted.
func (r *Resolver) match(fsys iofs.FS, pattern string) ([]string, error) {
	if !isGlob(pattern) {
		info, err := iofs.Stat(fsys, pattern)
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrInputNotFound, pattern), "path", pattern)
		}
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			return nil, nil
		}
		return []string{pattern}, nil
	}

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	slices.Sort(matches)
	return matches, nil
}

// MatchAny reports whether rel (slash-separated, relative to the project
// root) matches any of patterns.
func MatchAny(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, err := doublestar.Match(normalizePattern(p), rel); err == nil && ok {
			return true
		}
	}
	return false
}

func normalizePattern(p string) string {
	p = filepath.ToSlash(strings.TrimSpace(p))
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

func hasParentSegment(p string) bool {
	return slices.Contains(strings.Split(p, "/"), "..")
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// staticBase returns the directory part of pattern before its first meta
// character. Literal paths use their own directory.
func staticBase(pattern string) string {
	if !isGlob(pattern) {
		return path.Dir(pattern)
	}
	base, _ := doublestar.SplitPattern(pattern)
	return base
}

func relativeTo(base, p string) string {
	if base == "." || base == "" {
		return p
	}
	return strings.TrimPrefix(p, base+"/")
}
