package scheduler_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/tend/internal/core/ports/mocks"
	"go.trai.ch/tend/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type schedulerTestMocks struct {
	executor *mocks.MockExecutor
	tracer   *mocks.MockTracer
}

func setupSchedulerTest(t *testing.T) (*scheduler.Scheduler, schedulerTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := schedulerTestMocks{
		executor: mocks.NewMockExecutor(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
	}

	mockSpan := mocks.NewMockSpan(ctrl)
	mockSpan.EXPECT().End().AnyTimes()
	mockSpan.EXPECT().RecordError(gomock.Any()).AnyTimes()
	mockSpan.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	mockSpan.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		return len(p), nil
	}).AnyTimes()

	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, mockSpan
		},
	).AnyTimes()
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	return scheduler.NewScheduler(m.executor, m.tracer), m
}

// projectWith builds a validated project holding tasks.
func projectWith(t *testing.T, tasks ...domain.Task) *domain.Project {
	t.Helper()
	g := domain.NewGraph()
	g.SetRoot("/site")
	for i := range tasks {
		require.NoError(t, g.AddTask(&tasks[i]))
	}
	require.NoError(t, g.Validate())
	return &domain.Project{Root: "/site", OutputDir: "dist", Graph: g}
}

func task(name string, deps ...string) domain.Task {
	return domain.Task{
		Name:         domain.NewInternedString(name),
		Action:       domain.ActionGroup,
		Dependencies: domain.NewInternedStrings(deps),
	}
}

// recorder logs task start and end events in the order they happen.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) index(e string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Index(r.events, e)
}

func (r *recorder) execute(
	_ context.Context, _ *domain.Project, task *domain.Task, _ io.Writer,
) (domain.TaskResult, error) {
	r.add("start:" + task.Name.String())
	r.add("end:" + task.Name.String())
	return domain.TaskResult{Task: task.Name.String()}, nil
}

func TestScheduler_Run_Diamond(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)

		// A depends on B and C, which both depend on D.
		project := projectWith(t, task("A", "B", "C"), task("B", "D"), task("C", "D"), task("D"))

		dStarted := make(chan struct{})
		dProceed := make(chan struct{})
		bProceed := make(chan struct{})
		cProceed := make(chan struct{})
		var started sync.Map

		m.executor.EXPECT().Execute(gomock.Any(), project, gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, _ *domain.Project, task *domain.Task, _ io.Writer) (domain.TaskResult, error) {
				started.Store(task.Name.String(), true)
				switch task.Name.String() {
				case "D":
					close(dStarted)
					<-dProceed
					return domain.TaskResult{}, nil
				case "B":
					<-bProceed
					return domain.TaskResult{}, errors.New("B failed")
				case "C":
					<-cProceed
					return domain.TaskResult{}, nil
				default:
					t.Errorf("unexpected task: %s", task.Name)
					return domain.TaskResult{}, nil
				}
			}).Times(3)

		errCh := make(chan error)
		go func() {
			errCh <- s.Run(context.Background(), project, []string{"A"}, 2)
		}()

		synctest.Wait()
		<-dStarted
		_, bRunning := started.Load("B")
		assert.False(t, bRunning, "B started before D completed")

		close(dProceed)
		synctest.Wait()

		_, bRunning = started.Load("B")
		_, cRunning := started.Load("C")
		assert.True(t, bRunning)
		assert.True(t, cRunning)

		close(bProceed)
		close(cProceed)

		err := <-errCh
		require.Error(t, err)
		assert.Contains(t, err.Error(), "B failed")

		assert.Equal(t, scheduler.StatusCompleted, s.Status("D"))
		assert.Equal(t, scheduler.StatusFailed, s.Status("B"))
		assert.Equal(t, scheduler.StatusCompleted, s.Status("C"))
		assert.Equal(t, scheduler.StatusSkipped, s.Status("A"))
	})
}

func TestScheduler_Run_FailureCarriesTaskName(t *testing.T) {
	s, m := setupSchedulerTest(t)
	project := projectWith(t, task("copy:others"))

	cause := zerr.With(domain.ErrInputNotFound, "path", "app/favicon.ico")
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.TaskResult{}, cause)

	err := s.Run(t.Context(), project, []string{"copy:others"}, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, domain.ErrTaskExecutionFailed.Error(), zErr.Message())
	assert.Equal(t, "copy:others", zErr.Metadata()["task"])
}

func TestScheduler_Run_UnknownTarget(t *testing.T) {
	s, _ := setupSchedulerTest(t)
	project := projectWith(t, task("clean"))

	err := s.Run(t.Context(), project, []string{"ghost"}, 1)
	require.Error(t, err)

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, domain.ErrTaskNotFound.Error(), zErr.Message())
	assert.Equal(t, "ghost", zErr.Metadata()["task"])
}

func TestScheduler_Run_CleanBeforeWriters(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, m := setupSchedulerTest(t)
		project, err := domain.NewDefaultProject("/site")
		require.NoError(t, err)

		rec := &recorder{}
		m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(rec.execute).Times(project.Graph.TaskCount())

		require.NoError(t, s.Run(t.Context(), project, nil, 8))

		cleanEnd := rec.index("end:clean")
		require.NotEqual(t, -1, cleanEnd)
		for task := range project.Graph.Walk() {
			if task.Action.Writes() {
				assert.Greater(t, rec.index("start:"+task.Name.String()), cleanEnd, task.Name.String())
			}
		}
		assert.Greater(t, rec.index("start:browserify"), rec.index("end:copy:js"))
		assert.Greater(t, rec.index("start:copy:others"), rec.index("end:browserify"))
		assert.Greater(t, rec.index("start:browserSync"), rec.index("end:copy:others"))
		assert.Greater(t, rec.index("start:watch"), rec.index("end:browserSync"))
	})
}

func TestScheduler_Run_AfterEdgeOnlyWithinRun(t *testing.T) {
	s, m := setupSchedulerTest(t)
	project, err := domain.NewDefaultProject("/site")
	require.NoError(t, err)

	rec := &recorder{}
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(rec.execute).Times(1)

	require.NoError(t, s.Run(t.Context(), project, []string{"copy:html"}, 4))
	assert.Equal(t, []string{"start:copy:html", "end:copy:html"}, rec.events)
}

func TestScheduler_Run_All(t *testing.T) {
	s, m := setupSchedulerTest(t)
	project := projectWith(t, task("a"), task("b"), task("c", "a"))

	rec := &recorder{}
	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(rec.execute).Times(3)

	require.NoError(t, s.Run(t.Context(), project, []string{"all"}, 1))
	assert.Greater(t, rec.index("start:c"), rec.index("end:a"))
	assert.NotEqual(t, -1, rec.index("start:b"))
}

func TestScheduler_Run_StaleResult(t *testing.T) {
	s, m := setupSchedulerTest(t)
	project := projectWith(t, task("copy:sass"), task("default", "copy:sass"))

	m.executor.EXPECT().Execute(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *domain.Project, task *domain.Task, _ io.Writer) (domain.TaskResult, error) {
			return domain.TaskResult{Task: task.Name.String(), Stale: task.Name.String() == "copy:sass"}, nil
		}).Times(2)

	require.NoError(t, s.Run(t.Context(), project, []string{"default"}, 2))
	assert.Equal(t, scheduler.StatusStale, s.Status("copy:sass"))
	assert.Equal(t, scheduler.StatusCompleted, s.Status("default"))
}

func TestScheduler_Run_ServiceSpansAreBackground(t *testing.T) {
	ctrl := gomock.NewController(t)
	executor := mocks.NewMockExecutor(ctrl)
	tracer := mocks.NewMockTracer(ctrl)
	span := mocks.NewMockSpan(ctrl)

	project := projectWith(t, domain.Task{Name: domain.NewInternedString("browserSync"), Action: domain.ActionServe})

	span.EXPECT().SetAttribute("tend.action", "serve")
	span.EXPECT().End()
	tracer.EXPECT().EmitPlan(gomock.Any(), []string{"browserSync"}, map[string][]string{"browserSync": {}}, []string{"browserSync"})
	tracer.EXPECT().Start(gomock.Any(), "browserSync", gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, opts ...ports.SpanOption) (context.Context, ports.Span) {
			cfg := &ports.SpanConfig{}
			for _, opt := range opts {
				opt(cfg)
			}
			assert.True(t, cfg.Background)
			return ctx, span
		})
	executor.EXPECT().Execute(gomock.Any(), project, gomock.Any(), span).Return(domain.TaskResult{}, nil)

	s := scheduler.NewScheduler(executor, tracer)
	require.NoError(t, s.Run(t.Context(), project, []string{"browserSync"}, 1))
}

func TestScheduler_Runner(t *testing.T) {
	s, m := setupSchedulerTest(t)
	project := projectWith(t, task("clean"))

	m.executor.EXPECT().Execute(gomock.Any(), project, gomock.Any(), gomock.Any()).Return(domain.TaskResult{}, nil)

	var runner ports.TaskRunner = s.Runner(project, 1)
	require.NoError(t, runner.RunTasks(t.Context(), []string{"clean"}))
}

func TestScheduler_Run_Cancelled(t *testing.T) {
	s, _ := setupSchedulerTest(t)
	project := projectWith(t, task("clean"))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := s.Run(ctx, project, []string{"clean"}, 1)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, scheduler.StatusSkipped, s.Status("clean"))
}
