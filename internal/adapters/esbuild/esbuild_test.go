package esbuild_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/esbuild"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestBundler_Bundle(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "app", "sw.js")
	writeFile(t, filepath.Join(root, "app", "cache.js"), "export const name = 'static-v1';\n")
	writeFile(t, entry, "import { name } from './cache.js';\nself.addEventListener('install', () => caches.open(name));\n")

	b := esbuild.NewBundler()
	req := ports.BundleRequest{Entry: entry, Outfile: filepath.Join(root, "dist", "sw.js")}

	res, err := b.Bundle(t.Context(), req)
	require.NoError(t, err)

	assert.Contains(t, string(res.Code), "static-v1")
	assert.Contains(t, string(res.Code), "sourceMappingURL=sw.js.map")
	assert.Contains(t, string(res.SourceMap), "cache.js")

	// Rebuilding the same entry yields the same output.
	again, err := b.Bundle(t.Context(), req)
	require.NoError(t, err)
	assert.Equal(t, res.Code, again.Code)
}

func TestBundler_Bundle_MissingImport(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "sw.js")
	writeFile(t, entry, "import './missing.js';\n")

	_, err := esbuild.NewBundler().Bundle(t.Context(), ports.BundleRequest{
		Entry:   entry,
		Outfile: filepath.Join(root, "dist", "sw.js"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBundleFailed))
	assert.Contains(t, err.Error(), "missing.js")
}

func TestBundler_Bundle_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := esbuild.NewBundler().Bundle(ctx, ports.BundleRequest{Entry: "sw.js", Outfile: "out.js"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPrefixer_Prefix(t *testing.T) {
	res, err := esbuild.NewPrefixer().Prefix(ports.PrefixRequest{
		CSS:      []byte(".card{user-select:none}"),
		Filename: "styles.css",
	})
	require.NoError(t, err)

	assert.Contains(t, string(res.CSS), "-webkit-user-select:none")
	assert.Contains(t, string(res.CSS), "user-select:none")
	assert.NotEmpty(t, res.SourceMap)
}
