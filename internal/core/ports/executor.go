// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/tend/internal/core/domain"
)

// Executor defines the interface for executing tasks.
//
//go:generate mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the given task against project. Progress lines are
	// written to out. It returns an error if the task fails.
	Execute(ctx context.Context, project *domain.Project, task *domain.Task, out io.Writer) (domain.TaskResult, error)
}

// TaskRunner runs named tasks and everything they depend on.
type TaskRunner interface {
	RunTasks(ctx context.Context, targets []string) error
}
