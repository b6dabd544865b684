package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/engine/dispatcher"
)

var _ ports.Executor = (*session)(nil)

// session executes the tasks of one tend invocation. Service actions are
// started on the invocation's context so they outlive the run that armed
// them; every other action goes to the asset executor.
type session struct {
	ctx        context.Context
	assets     ports.Executor
	server     ports.DevServer
	dispatcher *dispatcher.Dispatcher
	runner     ports.TaskRunner

	mu       sync.Mutex
	serving  bool
	watching bool
}

func (s *session) Execute(
	ctx context.Context, project *domain.Project, task *domain.Task, out io.Writer,
) (domain.TaskResult, error) {
	result := domain.TaskResult{Task: task.Name.String()}

	switch task.Action {
	case domain.ActionServe:
		dir := project.OutputDir
		if !task.Dest.IsZero() {
			dir = task.Dest.String()
		}
		dir = filepath.Join(project.Root, filepath.FromSlash(dir))

		if err := s.server.Start(s.ctx, dir, project.Port); err != nil {
			result.Err = err
			return result, err
		}
		s.mu.Lock()
		s.serving = true
		s.mu.Unlock()
		_, _ = fmt.Fprintf(out, "live reload server listening on %s\n", s.server.Addr())

	case domain.ActionWatch:
		if err := s.dispatcher.Start(s.ctx, project, s.runner); err != nil {
			result.Err = err
			return result, err
		}
		s.mu.Lock()
		s.watching = true
		s.mu.Unlock()
		_, _ = fmt.Fprintln(out, "watching for changes")

	default:
		return s.assets.Execute(ctx, project, task, out)
	}

	return result, nil
}

func (s *session) services() (serving, watching bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serving, s.watching
}
