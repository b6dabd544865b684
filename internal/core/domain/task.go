package domain

// Action identifies what a task does with its sources.
type Action string

const (
	// ActionCopy writes each matched source unchanged into the destination.
	ActionCopy Action = "copy"
	// ActionConcat joins matched sources, in pattern order, into a single file.
	ActionConcat Action = "concat"
	// ActionSass compiles a stylesheet to compressed, vendor-prefixed CSS.
	ActionSass Action = "sass"
	// ActionBundle bundles each configured entry script with its imports.
	ActionBundle Action = "bundle"
	// ActionClean removes the destination directory recursively.
	ActionClean Action = "clean"
	// ActionServe starts the live-reload development server.
	ActionServe Action = "serve"
	// ActionWatch arms the watch dispatcher.
	ActionWatch Action = "watch"
	// ActionGroup does nothing by itself and only aggregates dependencies.
	ActionGroup Action = "group"
)

// Valid reports whether a is an action tend knows how to run.
func (a Action) Valid() bool {
	switch a {
	case ActionCopy, ActionConcat, ActionSass, ActionBundle,
		ActionClean, ActionServe, ActionWatch, ActionGroup:
		return true
	default:
		return false
	}
}

// Writes reports whether the action produces files in the output directory.
func (a Action) Writes() bool {
	switch a {
	case ActionCopy, ActionConcat, ActionSass, ActionBundle:
		return true
	default:
		return false
	}
}

// Service reports whether the action starts a long-lived background service.
func (a Action) Service() bool {
	return a == ActionServe || a == ActionWatch
}

// Task represents a named unit of work.
// It uses InternedString for fields that are frequently repeated to save memory.
type Task struct {
	Name         InternedString
	Action       Action
	Sources      []InternedString
	Dest         InternedString
	Outfile      string
	IncludePaths []InternedString
	// Dependencies are pulled into every run of the task and complete first.
	Dependencies []InternedString
	// After lists tasks that must complete first only when they are part of the same run.
	After []InternedString
}

// SourceStrings returns the task's source patterns as plain strings.
func (t *Task) SourceStrings() []string {
	return toStrings(t.Sources)
}

// IncludePathStrings returns the task's include paths as plain strings.
func (t *Task) IncludePathStrings() []string {
	return toStrings(t.IncludePaths)
}

func toStrings(in []InternedString) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = s.String()
	}
	return out
}

// TaskResult is the outcome of one task execution.
type TaskResult struct {
	Task string
	// Produced lists output files relative to the project root.
	Produced []string
	// Streamed is set when the outputs were pushed to browsers as asset replacements.
	Streamed bool
	// Stale is set when the task recovered from a tool error and left its previous output in place.
	Stale bool
	Err   error
}
