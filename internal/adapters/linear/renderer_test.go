package linear_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/adapters/linear"
)

func newRenderer(t *testing.T) (*linear.Renderer, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	var stdout, stderr bytes.Buffer
	return linear.NewRenderer(&stdout, &stderr), &stdout, &stderr
}

func TestRenderer_TaskLifecycle(t *testing.T) {
	r, stdout, stderr := newRenderer(t)
	require.NoError(t, r.Start(t.Context()))

	r.OnPlanEmit([]string{"clean", "copy:html"}, map[string][]string{"copy:html": {"clean"}}, []string{"copy:html"})

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.OnTaskStart("span1", "", "copy:html", start)
	r.OnTaskLog("span1", []byte("copied 2 file(s) to dist\n"))
	r.OnTaskComplete("span1", start.Add(120*time.Millisecond), nil)

	require.NoError(t, r.Stop())

	assert.Equal(t, "[copy:html] copied 2 file(s) to dist\n", stdout.String())
	assert.Equal(t,
		"Planning to run 2 task(s) for target(s): [copy:html]\n"+
			"[copy:html] Starting...\n"+
			"[copy:html] ✓ Completed in 120ms\n",
		stderr.String(),
	)
}

func TestRenderer_PartialLines(t *testing.T) {
	r, stdout, _ := newRenderer(t)
	start := time.Now()

	r.OnTaskStart("span1", "", "copy:js", start)
	r.OnTaskLog("span1", []byte("part"))
	assert.Empty(t, stdout.String())

	r.OnTaskLog("span1", []byte("ial\nnext\r\n\ntail"))
	assert.Equal(t, "[copy:js] partial\n[copy:js] next\n", stdout.String())

	r.OnTaskComplete("span1", start, nil)
	assert.Equal(t, "[copy:js] partial\n[copy:js] next\n[copy:js] tail\n", stdout.String())
}

func TestRenderer_Failure(t *testing.T) {
	r, _, stderr := newRenderer(t)
	start := time.Now()

	r.OnTaskStart("span1", "", "copy:others", start)
	r.OnTaskComplete("span1", start.Add(time.Second), errors.New("input not found"))

	assert.Contains(t, stderr.String(), "[copy:others] ✗ Failed after 1s: input not found")
}

func TestRenderer_UnknownSpan(t *testing.T) {
	r, stdout, stderr := newRenderer(t)

	r.OnTaskLog("missing", []byte("line\n"))
	r.OnTaskComplete("missing", time.Now(), nil)

	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())
}

func TestRenderer_StopFlushes(t *testing.T) {
	r, stdout, _ := newRenderer(t)

	r.OnTaskStart("span1", "", "watch", time.Now())
	r.OnTaskLog("span1", []byte("no newline"))
	require.NoError(t, r.Stop())

	assert.Equal(t, "[watch] no newline\n", stdout.String())
}
