package logger_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/logger"
	"go.trai.ch/zerr"
)

func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Info(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Info("File app/index.html was changed")

	g := goldie.New(t)
	g.Assert(t, "info_basic", buf.Bytes())
}

func TestLogger_Warn(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Warn("settle window reset")

	g := goldie.New(t)
	g.Assert(t, "warn_basic", buf.Bytes())
}

func TestLogger_Error_ZerrChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	root := errors.New("no such file or directory")
	err := zerr.With(zerr.Wrap(root, "failed to read input"), "path", "app/css/styles.scss")
	err = zerr.Wrap(err, "task execution failed")
	lg.Error(err)

	g := goldie.New(t)
	g.Assert(t, "error_zerr_chain", buf.Bytes())
}

func TestLogger_Error_Stdlib(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(fmt.Errorf("outer: %w", errors.New("inner")))

	assert.Equal(t, "✗ Error: outer: inner\n", buf.String())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("watching for changes again")
	lg.Error(zerr.Wrap(errors.New("boom"), "bundle failed"))

	out := buf.String()
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"msg":"watching for changes again"`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"error":"bundle failed: boom"`)
}

func TestLogger_FormatSwitching(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.SetJSON(true)
	lg.Info("json")
	require.Contains(t, buf.String(), `"msg":"json"`)

	buf.Reset()
	lg.SetJSON(false)
	lg.Info("pretty")
	assert.Equal(t, "pretty\n", buf.String())
}

func TestLogger_SetOutput(t *testing.T) {
	lg, first := newTestLogger(t)
	lg.Info("one")

	second := &bytes.Buffer{}
	lg.SetOutput(second)
	lg.Info("two")

	assert.Equal(t, "one\n", first.String())
	assert.Equal(t, "two\n", second.String())
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			if i%2 == 0 {
				lg.SetOutput(io.Discard)
			}
			lg.Info("message")
		})
	}
	wg.Wait()
}
