// Package app implements the application layer for tend.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/tend/internal/adapters/telemetry"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/dispatcher"
	"go.trai.ch/tend/internal/engine/scheduler"
	"go.trai.ch/tend/internal/ui/style"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

const maxPort = 65535

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	executor     ports.Executor
	server       ports.DevServer
	dispatcher   *dispatcher.Dispatcher
	renderer     ports.Renderer
	logger       ports.Logger

	workDir string
	out     io.Writer
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	executor ports.Executor,
	server ports.DevServer,
	disp *dispatcher.Dispatcher,
	renderer ports.Renderer,
	log ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		executor:     executor,
		server:       server,
		dispatcher:   disp,
		renderer:     renderer,
		logger:       log,
		workDir:      ".",
		out:          os.Stdout,
	}
}

// WithWorkDir sets the directory configuration discovery starts from.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// WithOutput sets the writer listings are printed to.
func (a *App) WithOutput(w io.Writer) *App {
	a.out = w
	return a
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// ConfigFile is an explicit configuration path. Discovery is used when empty.
	ConfigFile string
	// Port overrides the configured dev server port when non-zero.
	Port int
	// Parallelism bounds concurrent tasks. Zero means one per CPU.
	Parallelism int
}

// Run executes the named tasks. Without targets the default task runs.
// When the run starts the dev server or the watcher, Run blocks until ctx
// is cancelled and the services have shut down.
func (a *App) Run(ctx context.Context, targetNames []string, opts RunOptions) error {
	project, err := a.loadProject(opts)
	if err != nil {
		return err
	}

	if err := checkTargets(project, targetNames); err != nil {
		return err
	}

	defer a.closeExecutor()

	tp := telemetry.Setup(a.renderer)
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()
	tracer := telemetry.NewOTelTracer("tend").WithRenderer(a.renderer)

	sess := &session{
		ctx:        ctx,
		assets:     a.executor,
		server:     a.server,
		dispatcher: a.dispatcher,
	}
	sched := scheduler.NewScheduler(sess, tracer)
	sess.runner = sched.Runner(project, opts.Parallelism)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.renderer.Start(gctx)
	})

	g.Go(func() error {
		defer func() {
			_ = a.renderer.Stop()
		}()

		if err := sched.Run(gctx, project, targetNames, opts.Parallelism); err != nil {
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	serving, watching := sess.services()
	if !serving && !watching {
		return nil
	}

	<-ctx.Done()
	if watching {
		a.dispatcher.Wait()
	}
	if serving {
		return a.server.Wait()
	}
	return nil
}

// Clean runs the clean task of the project's delete policy.
func (a *App) Clean(ctx context.Context, opts RunOptions) error {
	project, err := a.loadProject(opts)
	if err != nil {
		return err
	}

	name := project.OnDelete.Clean
	if name == "" {
		name = "clean"
	}
	return a.Run(ctx, []string{name}, opts)
}

// List prints every declared task with its action and edges.
func (a *App) List(_ context.Context, opts RunOptions) error {
	project, err := a.loadProject(opts)
	if err != nil {
		return err
	}

	names := project.Graph.Names()
	width := 0
	for _, name := range names {
		width = max(width, len(name))
	}

	nameStyle := lipgloss.NewStyle().Foreground(style.Iris).Width(width + 2)
	actionStyle := lipgloss.NewStyle().Width(8)
	edgeStyle := lipgloss.NewStyle().Foreground(style.Slate)

	for _, name := range names {
		task, _ := project.Graph.GetTask(domain.NewInternedString(name))

		var edges []string
		if deps := joinNames(task.Dependencies); deps != "" {
			edges = append(edges, "needs "+deps)
		}
		if after := joinNames(task.After); after != "" {
			edges = append(edges, "after "+after)
		}

		line := nameStyle.Render(name) + actionStyle.Render(string(task.Action))
		if len(edges) > 0 {
			line += edgeStyle.Render(strings.Join(edges, "; "))
		}
		if _, err := fmt.Fprintln(a.out, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) loadProject(opts RunOptions) (*domain.Project, error) {
	var (
		project *domain.Project
		err     error
	)
	if opts.ConfigFile != "" {
		project, err = a.configLoader.LoadFile(opts.ConfigFile)
	} else {
		project, err = a.configLoader.Load(a.workDir)
	}
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.Port != 0 {
		if opts.Port < 1 || opts.Port > maxPort {
			return nil, zerr.With(domain.ErrInvalidPort, "port", opts.Port)
		}
		project.Port = opts.Port
	}
	return project, nil
}

// closeExecutor releases external processes the executor started.
func (a *App) closeExecutor() {
	c, ok := a.executor.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		a.logger.Warn("failed to stop asset tools: " + err.Error())
	}
}

// checkTargets rejects unknown targets before the run is planned.
func checkTargets(project *domain.Project, targetNames []string) error {
	if slices.Contains(targetNames, domain.ReservedTaskName) {
		return nil
	}
	if len(targetNames) == 0 {
		targetNames = []string{domain.DefaultTarget}
	}
	for _, name := range targetNames {
		if _, ok := project.Graph.GetTask(domain.NewInternedString(name)); !ok {
			return zerr.With(zerr.Wrap(domain.ErrTaskNotFound, "unknown target"), "task", name)
		}
	}
	return nil
}

func joinNames(in []domain.InternedString) string {
	names := make([]string, len(in))
	for i, n := range in {
		names[i] = n.String()
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
