package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/cmd/tend/commands"
	"go.trai.ch/tend/internal/app"
	"go.trai.ch/tend/internal/build"
)

type mockApp struct {
	runFunc   func(ctx context.Context, targetNames []string, opts app.RunOptions) error
	cleanOpts *app.RunOptions
	listOpts  *app.RunOptions
}

func (m *mockApp) Run(ctx context.Context, targetNames []string, opts app.RunOptions) error {
	if m.runFunc != nil {
		return m.runFunc(ctx, targetNames, opts)
	}
	return nil
}

func (m *mockApp) Clean(_ context.Context, opts app.RunOptions) error {
	m.cleanOpts = &opts
	return nil
}

func (m *mockApp) List(_ context.Context, opts app.RunOptions) error {
	m.listOpts = &opts
	return nil
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.RunOptions
		var capturedTargets []string

		mock := &mockApp{
			runFunc: func(_ context.Context, targetNames []string, opts app.RunOptions) error {
				capturedOpts = opts
				capturedTargets = targetNames
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "copy:sass", "browserSync", "--port", "4000", "-j", "2", "-c", "site/tend.yaml"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []string{"copy:sass", "browserSync"}, capturedTargets)
		assert.Equal(t, app.RunOptions{ConfigFile: "site/tend.yaml", Port: 4000, Parallelism: 2}, capturedOpts)
	})

	t.Run("runs default task without arguments", func(t *testing.T) {
		called := false
		mock := &mockApp{
			runFunc: func(_ context.Context, targetNames []string, _ app.RunOptions) error {
				called = true
				assert.Empty(t, targetNames)
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, called)
	})

	t.Run("returns error on run failure", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ []string, _ app.RunOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"run", "clean"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("json flag toggles structured logs", func(t *testing.T) {
		var enabled bool
		cli := commands.New(&mockApp{}, commands.WithJSONLogs(func(on bool) { enabled = on }))
		cli.SetArgs([]string{"run", "--json"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.True(t, enabled)
	})
}

func TestCommands_Clean(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)
	cli.SetArgs([]string{"clean", "--config", "tend.yaml"})

	require.NoError(t, cli.Execute(context.Background()))
	require.NotNil(t, mock.cleanOpts)
	assert.Equal(t, "tend.yaml", mock.cleanOpts.ConfigFile)
}

func TestCommands_List(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)
	cli.SetArgs([]string{"ls"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.NotNil(t, mock.listOpts)
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), "tend version "+build.Version)
}

func TestCommands_VersionFlag(t *testing.T) {
	cli := commands.New(&mockApp{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"--version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), "commit: "+build.Commit)
}
