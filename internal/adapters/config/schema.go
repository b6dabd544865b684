package config

// Tendfile represents the structure of the tend.yaml configuration file.
type Tendfile struct {
	Root     string              `yaml:"root"`
	Source   string              `yaml:"source"`
	Output   string              `yaml:"output"`
	Port     int                 `yaml:"port"`
	Settle   string              `yaml:"settle"`
	Tasks    map[string]*TaskDTO `yaml:"tasks"`
	Bundles  map[string]string   `yaml:"bundles"`
	Watch    []WatchDTO          `yaml:"watch"`
	OnDelete *OnDeleteDTO        `yaml:"onDelete"`
}

// TaskDTO represents a task definition in the configuration.
type TaskDTO struct {
	Action    string   `yaml:"action"`
	Src       []string `yaml:"src"`
	Dest      string   `yaml:"dest"`
	Outfile   string   `yaml:"outfile"`
	Include   []string `yaml:"include"`
	DependsOn []string `yaml:"dependsOn"`
	After     []string `yaml:"after"`
}

// WatchDTO binds glob patterns to the tasks re-run when they change.
type WatchDTO struct {
	Patterns []string `yaml:"patterns"`
	Tasks    []string `yaml:"tasks"`
}

// OnDeleteDTO configures the recovery run after a watched file disappears.
type OnDeleteDTO struct {
	Clean string   `yaml:"clean"`
	Run   []string `yaml:"run"`
}
