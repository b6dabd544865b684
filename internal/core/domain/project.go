package domain

import (
	"path"
	"time"
)

// Bundle maps a logical output name to the entry script it is built from.
type Bundle struct {
	// Name is the output path relative to the bundle task's destination, e.g. "sw.js".
	Name string
	// Entry is the entry script relative to the project root.
	Entry string
}

// MapName returns the name of the bundle's source map.
func (b Bundle) MapName() string {
	return b.Name + ".map"
}

// WatchBinding maps a set of glob patterns to the tasks re-run when they change.
type WatchBinding struct {
	Patterns []string
	Tasks    []string
}

// DeleteRecovery describes what the dispatcher does when a watched file disappears.
type DeleteRecovery struct {
	// Clean is run once at the start of a settle window.
	Clean string
	// Rebuild is run in order once the settle window has passed.
	Rebuild []string
}

// Project is the fully resolved configuration of one tend project.
// It is built once at startup and passed to every component that needs it.
type Project struct {
	Root         string
	SourceDir    string
	OutputDir    string
	Port         int
	SettleWindow time.Duration
	Graph        *Graph
	Bundles      []Bundle
	Watches      []WatchBinding
	OnDelete     DeleteRecovery
}

// DefaultBundles returns the bundles built by the browserify task.
func DefaultBundles(source string) []Bundle {
	return []Bundle{{Name: "sw.js", Entry: path.Join(source, "sw.js")}}
}

// DefaultWatches returns the watch bindings of a standard project layout.
func DefaultWatches(source string) []WatchBinding {
	return []WatchBinding{
		{Patterns: []string{path.Join(source, "*.html"), path.Join(source, "**", "*.html")}, Tasks: []string{"copy:html"}},
		{Patterns: []string{path.Join(source, "js", "**", "*.js")}, Tasks: []string{"copy:js"}},
		{Patterns: []string{path.Join(source, "css", "**", "*.scss")}, Tasks: []string{"copy:sass"}},
		{Patterns: []string{path.Join(source, "images", "*.*")}, Tasks: []string{"copy:images"}},
		{
			Patterns: []string{path.Join(source, "manifest.json"), path.Join(source, "sw.js"), "server.js"},
			Tasks:    []string{"copy:others"},
		},
	}
}

// DefaultDeleteRecovery returns the delete policy of a standard project.
func DefaultDeleteRecovery() DeleteRecovery {
	return DeleteRecovery{
		Clean:   "clean",
		Rebuild: []string{"copy:html", "copy:sass", "copy:images"},
	}
}

// DefaultTasks returns the built-in task set for the given source and output
// directories. The ordering edges guarantee that clean finishes before any
// writer of the same run starts and that the services come up last.
func DefaultTasks(source, output string) []Task {
	s := func(p ...string) []InternedString {
		out := make([]InternedString, len(p))
		for i, v := range p {
			out[i] = NewInternedString(v)
		}
		return out
	}
	src := func(p ...string) string { return path.Join(append([]string{source}, p...)...) }
	dst := func(p ...string) InternedString {
		return NewInternedString(path.Join(append([]string{output}, p...)...))
	}
	copies := s("copy:html", "copy:sass", "copy:images", "copy:js")

	return []Task{
		{Name: NewInternedString("clean"), Action: ActionClean, Dest: dst()},
		{
			Name: NewInternedString("copy:html"), Action: ActionCopy,
			Sources: s(src("*.html")), Dest: dst(), After: s("clean"),
		},
		{
			Name: NewInternedString("copy:sass"), Action: ActionSass,
			Sources: s(src("css", "styles.scss")), Dest: dst("css"),
			IncludePaths: s(src("css")), After: s("clean"),
		},
		{
			Name: NewInternedString("copy:images"), Action: ActionCopy,
			Sources: s(src("images", "*.*")), Dest: dst("images"), After: s("clean"),
		},
		{
			Name: NewInternedString("copy:js"), Action: ActionConcat,
			Sources: s(src("js", "vendor", "*.js"), src("js", "*.js")), Dest: dst("js"),
			Outfile: "app.js", After: s("clean"),
		},
		{
			Name: NewInternedString("browserify"), Action: ActionBundle,
			Dest: dst(), After: append(s("clean"), copies...),
		},
		{
			Name: NewInternedString("copy:others"), Action: ActionCopy,
			Sources: s(src("favicon.ico"), src("manifest.json"), src("sw.js"), "server.js"),
			Dest:    dst(), After: s("clean", "browserify"),
		},
		{Name: NewInternedString("browserSync"), Action: ActionServe, Dest: dst(), After: s("copy:others")},
		{Name: NewInternedString("watch"), Action: ActionWatch, After: s("browserSync")},
		{
			Name: NewInternedString(DefaultTarget), Action: ActionGroup,
			Dependencies: s(
				"clean", "copy:html", "copy:sass", "copy:images", "copy:js",
				"browserify", "copy:others", "browserSync", "watch",
			),
		},
	}
}

// NewDefaultProject returns the project used when no configuration file exists.
func NewDefaultProject(root string) (*Project, error) {
	g := NewGraph()
	g.SetRoot(root)
	for _, t := range DefaultTasks(DefaultSourceDir, DefaultOutputDir) {
		if err := g.AddTask(&t); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Project{
		Root:         root,
		SourceDir:    DefaultSourceDir,
		OutputDir:    DefaultOutputDir,
		Port:         DefaultPort,
		SettleWindow: DefaultSettleWindow,
		Graph:        g,
		Bundles:      DefaultBundles(DefaultSourceDir),
		Watches:      DefaultWatches(DefaultSourceDir),
		OnDelete:     DefaultDeleteRecovery(),
	}, nil
}
