// Package dispatcher re-runs tasks when watched source files change.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/tend/internal/adapters/fs"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
)

// RearmedMessage is logged once the delete recovery has rebuilt the output.
const RearmedMessage = "watching for changes again"

// Dispatcher maps watcher events on bound glob patterns to task runs.
//
// Events are handled one at a time. A path that disappears runs the clean
// task of the delete policy once and opens a settle window; every further
// disappearance inside the window extends it. When the window passes quietly
// the rebuild tasks run in order.
type Dispatcher struct {
	watcher ports.Watcher
	logger  ports.Logger

	mu   sync.Mutex
	done chan struct{}
}

// New creates a Dispatcher reading events from watcher.
func New(watcher ports.Watcher, logger ports.Logger) *Dispatcher {
	return &Dispatcher{watcher: watcher, logger: logger}
}

// Start arms the watcher over the project root and handles its events in
// the background until ctx is cancelled. The output directory is never watched.
func (d *Dispatcher) Start(ctx context.Context, project *domain.Project, runner ports.TaskRunner) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done != nil {
		return errors.Join(domain.ErrWatcherStartFailed, errors.New("dispatcher already started"))
	}

	if err := d.watcher.Start(ctx, project.Root, []string{project.OutputDir}); err != nil {
		return errors.Join(domain.ErrWatcherStartFailed, err)
	}

	d.done = make(chan struct{})
	go d.loop(ctx, project, runner, d.done)

	d.logger.Info(fmt.Sprintf("watching %s for changes", project.Root))
	return nil
}

// Wait blocks until the event loop has stopped. It returns immediately if
// the dispatcher was never started.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (d *Dispatcher) loop(ctx context.Context, project *domain.Project, runner ports.TaskRunner, done chan struct{}) {
	defer close(done)
	defer func() { _ = d.watcher.Stop() }()

	var (
		settle   *time.Timer
		settleCh <-chan time.Time
	)
	defer func() {
		if settle != nil {
			settle.Stop()
		}
	}()

	events := d.watcher.Events()
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			rel, ok := relative(project.Root, event.Path)
			if !ok {
				continue
			}
			tasks := boundTasks(project.Watches, rel)
			if len(tasks) == 0 {
				continue
			}

			d.logger.Info(fmt.Sprintf("File %s was %s", rel, event.Operation))

			if !event.Operation.Deleted() {
				d.run(ctx, runner, tasks)
				continue
			}

			if settle != nil {
				settle.Reset(project.SettleWindow)
				continue
			}
			if project.OnDelete.Clean != "" {
				d.run(ctx, runner, []string{project.OnDelete.Clean})
			}
			settle = time.NewTimer(project.SettleWindow)
			settleCh = settle.C

		case <-settleCh:
			settle, settleCh = nil, nil
			for _, name := range project.OnDelete.Rebuild {
				d.run(ctx, runner, []string{name})
			}
			d.logger.Info(RearmedMessage)
		}
	}
}

func (d *Dispatcher) run(ctx context.Context, runner ports.TaskRunner, tasks []string) {
	if err := runner.RunTasks(ctx, tasks); err != nil && ctx.Err() == nil {
		d.logger.Error(err)
	}
}

// boundTasks returns the tasks bound to rel, in binding order without duplicates.
func boundTasks(bindings []domain.WatchBinding, rel string) []string {
	var tasks []string
	for _, b := range bindings {
		if !fs.MatchAny(b.Patterns, rel) {
			continue
		}
		for _, t := range b.Tasks {
			if !slices.Contains(tasks, t) {
				tasks = append(tasks, t)
			}
		}
	}
	return tasks
}

func relative(root, path string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, path)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
