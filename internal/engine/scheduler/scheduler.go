// Package scheduler implements the task execution scheduler.
package scheduler

import (
	"context"
	"errors"
	"maps"
	"runtime"
	"slices"
	"sync"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
)

// TaskStatus represents the status of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to be executed.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusCompleted indicates the task has finished successfully.
	StatusCompleted TaskStatus = "Completed"
	// StatusStale indicates the task finished but kept its previous output.
	StatusStale TaskStatus = "Stale"
	// StatusFailed indicates the task execution failed.
	StatusFailed TaskStatus = "Failed"
	// StatusSkipped indicates the task never ran because a predecessor failed.
	StatusSkipped TaskStatus = "Skipped"
)

// Scheduler manages the execution of tasks in the dependency graph.
type Scheduler struct {
	executor ports.Executor
	tracer   ports.Tracer

	mu         sync.RWMutex
	taskStatus map[domain.InternedString]TaskStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(executor ports.Executor, tracer ports.Tracer) *Scheduler {
	return &Scheduler{
		executor:   executor,
		tracer:     tracer,
		taskStatus: make(map[domain.InternedString]TaskStatus),
	}
}

func (s *Scheduler) initTaskStatuses(tasks []domain.InternedString) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range tasks {
		s.taskStatus[task] = StatusPending
	}
}

func (s *Scheduler) updateStatus(name domain.InternedString, status TaskStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskStatus[name] = status
}

// Status returns the status of the named task from the most recent run.
func (s *Scheduler) Status(name string) TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskStatus[domain.NewInternedString(name)]
}

// Runner binds the scheduler to a project so it can be handed to components
// that only know task names.
func (s *Scheduler) Runner(project *domain.Project, parallelism int) ports.TaskRunner {
	return runnerFunc(func(ctx context.Context, targets []string) error {
		return s.Run(ctx, project, targets, parallelism)
	})
}

type runnerFunc func(ctx context.Context, targets []string) error

func (f runnerFunc) RunTasks(ctx context.Context, targets []string) error {
	return f(ctx, targets)
}

// Run executes the named tasks and their dependencies with the specified parallelism.
// If targetNames contains "all", every task in the graph is executed.
// An After edge only orders two tasks when both are part of the run.
func (s *Scheduler) Run(
	ctx context.Context,
	project *domain.Project,
	targetNames []string,
	parallelism int,
) error {
	graph := project.Graph
	if err := graph.Validate(); err != nil {
		return err
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state, err := s.newRunState(ctx, project, targetNames, parallelism)
	if err != nil {
		return err
	}

	planned := make([]string, 0, len(state.tasks))
	for task := range graph.Walk() {
		if _, ok := state.tasks[task.Name]; ok {
			planned = append(planned, task.Name.String())
		}
	}

	depMap := make(map[string][]string, len(planned))
	for _, name := range planned {
		deps := make([]string, 0)
		for _, dep := range state.predecessors[domain.NewInternedString(name)] {
			deps = append(deps, dep.String())
		}
		depMap[name] = deps
	}

	s.tracer.EmitPlan(ctx, planned, depMap, targetNames)
	s.initTaskStatuses(slices.Collect(maps.Keys(state.tasks)))

	return state.runExecutionLoop()
}

type result struct {
	task  domain.InternedString
	err   error
	stale bool
}

type schedulerRunState struct {
	project      *domain.Project
	inDegree     map[domain.InternedString]int
	predecessors map[domain.InternedString][]domain.InternedString
	tasks        map[domain.InternedString]domain.Task
	ready        []domain.InternedString
	active       int
	resultsCh    chan result
	errs         error
	ctx          context.Context
	parallelism  int
	s            *Scheduler
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	project *domain.Project,
	targetNames []string,
	parallelism int,
) (*schedulerRunState, error) {
	tasksToRun, err := resolveTasksToRun(project.Graph, targetNames)
	if err != nil {
		return nil, err
	}

	tasks := make(map[domain.InternedString]domain.Task, len(tasksToRun))
	inDegree := make(map[domain.InternedString]int, len(tasksToRun))
	predecessors := make(map[domain.InternedString][]domain.InternedString, len(tasksToRun))

	for name := range tasksToRun {
		task, _ := project.Graph.GetTask(name)
		tasks[name] = task

		var preds []domain.InternedString
		for _, dep := range slices.Concat(task.Dependencies, task.After) {
			if tasksToRun[dep] && !slices.Contains(preds, dep) {
				preds = append(preds, dep)
			}
		}
		predecessors[name] = preds
		inDegree[name] = len(preds)
	}

	// Walk order keeps the initial queue deterministic.
	var ready []domain.InternedString
	for task := range project.Graph.Walk() {
		if tasksToRun[task.Name] && inDegree[task.Name] == 0 {
			ready = append(ready, task.Name)
		}
	}

	return &schedulerRunState{
		project:      project,
		inDegree:     inDegree,
		predecessors: predecessors,
		tasks:        tasks,
		ready:        ready,
		resultsCh:    make(chan result, parallelism),
		ctx:          ctx,
		parallelism:  parallelism,
		s:            s,
	}, nil
}

func resolveTasksToRun(graph *domain.Graph, targetNames []string) (map[domain.InternedString]bool, error) {
	if slices.Contains(targetNames, domain.ReservedTaskName) {
		all := make(map[domain.InternedString]bool, graph.TaskCount())
		for task := range graph.Walk() {
			all[task.Name] = true
		}
		return all, nil
	}

	if len(targetNames) == 0 {
		targetNames = []string{domain.DefaultTarget}
	}

	queue := make([]domain.InternedString, 0, len(targetNames))
	for _, nameStr := range targetNames {
		name := domain.NewInternedString(nameStr)
		if _, ok := graph.GetTask(name); !ok {
			return nil, zerr.With(domain.ErrTaskNotFound, "task", nameStr)
		}
		queue = append(queue, name)
	}

	tasksToRun := make(map[domain.InternedString]bool)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if tasksToRun[current] {
			continue
		}
		tasksToRun[current] = true

		task, _ := graph.GetTask(current)
		for _, dep := range task.Dependencies {
			if !tasksToRun[dep] {
				queue = append(queue, dep)
			}
		}
	}

	return tasksToRun, nil
}

func (state *schedulerRunState) runExecutionLoop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			state.markSkipped()
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	// A run whose every task finished is not failed by a late cancellation.
	if state.markSkipped() > 0 && state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		taskName := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(taskName, StatusRunning)

		t := state.tasks[taskName]
		go state.executeTask(&t)
	}
}

func (state *schedulerRunState) executeTask(t *domain.Task) {
	// The span must end before the result is sent, otherwise the run can
	// return while the renderer still waits for the completion.
	res := func() result {
		var opts []ports.SpanOption
		if t.Action.Service() {
			opts = append(opts, ports.WithBackground())
		}

		ctx, span := state.s.tracer.Start(state.ctx, t.Name.String(), opts...)
		defer span.End()

		span.SetAttribute("tend.action", string(t.Action))

		taskResult, err := state.s.executor.Execute(ctx, state.project, t, span)
		if err != nil {
			span.RecordError(err)
			return result{task: t.Name, err: err}
		}

		if len(taskResult.Produced) > 0 {
			span.SetAttribute("tend.produced", len(taskResult.Produced))
		}
		if taskResult.Stale {
			span.SetAttribute("tend.stale", true)
		}
		return result{task: t.Name, stale: taskResult.Stale}
	}()

	state.resultsCh <- res
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.err != nil {
		enhancedErr := zerr.With(zerr.Wrap(res.err, domain.ErrTaskExecutionFailed.Error()), "task", res.task.String())
		state.errs = errors.Join(state.errs, enhancedErr)
		state.s.updateStatus(res.task, StatusFailed)
		return
	}

	if res.stale {
		state.s.updateStatus(res.task, StatusStale)
	} else {
		state.s.updateStatus(res.task, StatusCompleted)
	}

	for _, dep := range state.project.Graph.Dependents(res.task) {
		// Only consider dependents that are part of the current execution.
		if _, ok := state.tasks[dep]; ok {
			state.inDegree[dep]--
			if state.inDegree[dep] == 0 {
				state.ready = append(state.ready, dep)
			}
		}
	}
}

// markSkipped flags every task that never left Pending and reports how many there were.
func (state *schedulerRunState) markSkipped() int {
	state.s.mu.Lock()
	defer state.s.mu.Unlock()

	skipped := 0
	for name := range state.tasks {
		if state.s.taskStatus[name] == StatusPending {
			state.s.taskStatus[name] = StatusSkipped
			skipped++
		}
	}
	return skipped
}
