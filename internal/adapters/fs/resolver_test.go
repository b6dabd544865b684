package fs_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/fs"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
)

func rels(files []ports.SourceFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Rel
	}
	return out
}

func TestResolver_PatternOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app/js/main.js":          "main",
		"app/js/a.js":             "a",
		"app/js/vendor/jquery.js": "jq",
		"app/js/vendor/idb.js":    "idb",
	})

	files, err := fs.NewResolver().Resolve(root, []string{"app/js/vendor/*.js", "app/js/*.js"})
	require.NoError(t, err)

	assert.Equal(t, []string{"idb.js", "jquery.js", "a.js", "main.js"}, rels(files))
	assert.Equal(t, filepath.Join(root, "app", "js", "vendor", "idb.js"), files[0].Path)
}

func TestResolver_Deduplicates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"app/index.html": "x"})

	files, err := fs.NewResolver().Resolve(root, []string{"app/*.html", "./app/index.html", "app/**/*.html"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "index.html", files[0].Rel)
}

func TestResolver_RelativeToBase(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app/images/logo.png":        "png",
		"app/images/nested/skip.png": "nested",
		"app/images/README":          "no extension",
		"server.js":                  "srv",
		"app/manifest.json":          "{}",
	})

	r := fs.NewResolver()

	images, err := r.Resolve(root, []string{"app/images/*.*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"logo.png"}, rels(images))

	others, err := r.Resolve(root, []string{"app/manifest.json", "server.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"manifest.json", "server.js"}, rels(others))

	deep, err := r.Resolve(root, []string{"app/**/*.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"images/logo.png", "images/nested/skip.png"}, rels(deep))
}

func TestResolver_EmptyGlobIsNotAnError(t *testing.T) {
	root := t.TempDir()

	files, err := fs.NewResolver().Resolve(root, []string{"app/*.html"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResolver_MissingLiteral(t *testing.T) {
	root := t.TempDir()

	_, err := fs.NewResolver().Resolve(root, []string{"app/favicon.ico"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInputNotFound), "got %v", err)
	assert.Contains(t, err.Error(), "app/favicon.ico")
}

func TestResolver_InvalidPatterns(t *testing.T) {
	root := t.TempDir()

	for _, p := range []string{"", "/etc/passwd", "../outside/*.js", "app/[.js"} {
		t.Run(p, func(t *testing.T) {
			_, err := fs.NewResolver().Resolve(root, []string{p})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidGlob), "got %v", err)
		})
	}
}

func TestMatchAny(t *testing.T) {
	tests := []struct {
		rel      string
		patterns []string
		want     bool
	}{
		{"app/index.html", []string{"app/*.html"}, true},
		{"app/pages/about.html", []string{"app/*.html"}, false},
		{"app/pages/about.html", []string{"app/*.html", "app/**/*.html"}, true},
		{"app/js/vendor/idb.js", []string{"app/js/**/*.js"}, true},
		{"app/css/_base.scss", []string{"./app/css/**/*.scss"}, true},
		{"server.js", []string{"server.js"}, true},
		{"dist/server.js", []string{"server.js"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, fs.MatchAny(tt.patterns, tt.rel))
		})
	}
}
