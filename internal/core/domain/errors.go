package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrReservedTaskName is returned when a task uses a reserved name (e.g., "all").
	ErrReservedTaskName = zerr.New("task name 'all' is reserved")

	// ErrInvalidTaskName is returned when a task name contains invalid characters.
	ErrInvalidTaskName = zerr.New("invalid task name")

	// ErrUnknownAction is returned when a task declares an action tend does not implement.
	ErrUnknownAction = zerr.New("unknown task action")

	// ErrUnknownWatchTask is returned when a watch binding names a task that is not declared.
	ErrUnknownWatchTask = zerr.New("watch binding references an unknown task")

	// ErrInvalidSettleWindow is returned when the settle window cannot be parsed.
	ErrInvalidSettleWindow = zerr.New("invalid settle window")

	// ErrInvalidPort is returned when the dev server port is outside the valid range.
	ErrInvalidPort = zerr.New("invalid server port")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrTaskExecutionFailed is returned when a task execution fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrInputResolutionFailed is returned when input resolution fails.
	ErrInputResolutionFailed = zerr.New("failed to resolve inputs")

	// ErrInputNotFound is returned when a declared literal input file is not found.
	ErrInputNotFound = zerr.New("input not found")

	// ErrInvalidGlob is returned when a source pattern is malformed.
	ErrInvalidGlob = zerr.New("invalid glob pattern")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the project root.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside project root")

	// ErrFailedToGetRoot is returned when the project root path cannot be determined.
	ErrFailedToGetRoot = zerr.New("failed to get absolute path of project root")

	// ErrFailedToCleanOutput is returned when removing the output directory fails.
	ErrFailedToCleanOutput = zerr.New("failed to clean output directory")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrFileWriteFailed is returned when an output file cannot be written.
	ErrFileWriteFailed = zerr.New("failed to write output file")

	// ErrStyleCompileFailed is returned when a stylesheet fails to compile.
	ErrStyleCompileFailed = zerr.New("stylesheet compilation failed")

	// ErrCompilerUnavailable is returned when the Sass compiler cannot be started.
	ErrCompilerUnavailable = zerr.New("sass compiler unavailable")

	// ErrPrefixFailed is returned when vendor prefixing fails.
	ErrPrefixFailed = zerr.New("failed to add vendor prefixes")

	// ErrBundleFailed is returned when a script bundle fails to build.
	ErrBundleFailed = zerr.New("bundle failed")

	// ErrServerStartFailed is returned when the dev server cannot bind its listener.
	ErrServerStartFailed = zerr.New("failed to start dev server")

	// ErrServerNotStarted is returned when a caller uses the dev server before starting it.
	ErrServerNotStarted = zerr.New("dev server not started")

	// ErrWatcherStartFailed is returned when the file watcher cannot be armed.
	ErrWatcherStartFailed = zerr.New("failed to start file watcher")

	// ErrUnsupportedAction is returned when an executor receives an action it does not handle.
	ErrUnsupportedAction = zerr.New("action not supported by executor")
)
