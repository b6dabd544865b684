// Package config provides the configuration loader for tend.
package config

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

const maxPort = 65535

var validTaskNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load discovers tend.yaml by walking up from cwd. Without a configuration
// file the built-in project rooted at cwd is returned.
func (l *Loader) Load(cwd string) (*domain.Project, error) {
	configPath, found := findConfiguration(cwd)
	if !found {
		root, err := filepath.Abs(cwd)
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
		}
		return domain.NewDefaultProject(root)
	}
	return l.LoadFile(configPath)
}

// DiscoverRoot returns the directory holding tend.yaml, or cwd when none exists.
func (l *Loader) DiscoverRoot(cwd string) (string, error) {
	configPath, found := findConfiguration(cwd)
	if !found {
		root, err := filepath.Abs(cwd)
		if err != nil {
			return "", zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
		}
		return root, nil
	}
	return filepath.Dir(configPath), nil
}

// LoadFile reads the configuration at configPath and merges it over the
// built-in project.
func (l *Loader) LoadFile(configPath string) (*domain.Project, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrFailedToGetRoot.Error())
	}

	var tendfile Tendfile
	if err := readAndUnmarshalYAML(abs, &tendfile); err != nil {
		return nil, zerr.With(err, "file", configPath)
	}

	return l.buildProject(abs, &tendfile)
}

func findConfiguration(cwd string) (string, bool) {
	currentDir, err := filepath.Abs(cwd)
	if err != nil {
		return "", false
	}

	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func (l *Loader) buildProject(configPath string, f *Tendfile) (*domain.Project, error) {
	root := resolveRoot(configPath, f.Root)
	source := cleanRel(cmp.Or(f.Source, domain.DefaultSourceDir))
	output := cleanRel(cmp.Or(f.Output, domain.DefaultOutputDir))

	if output == "." || strings.HasPrefix(output, "..") || path.IsAbs(output) {
		return nil, zerr.With(domain.ErrOutputPathOutsideRoot, "path", output)
	}

	port := cmp.Or(f.Port, domain.DefaultPort)
	if port < 1 || port > maxPort {
		return nil, zerr.With(domain.ErrInvalidPort, "port", f.Port)
	}

	settle, err := parseSettle(f.Settle)
	if err != nil {
		return nil, err
	}

	tasks, err := mergeTasks(domain.DefaultTasks(source, output), f.Tasks)
	if err != nil {
		return nil, err
	}

	g := domain.NewGraph()
	g.SetRoot(root)
	for i := range tasks {
		if err := g.AddTask(&tasks[i]); err != nil {
			return nil, err
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	project := &domain.Project{
		Root:         root,
		SourceDir:    source,
		OutputDir:    output,
		Port:         port,
		SettleWindow: settle,
		Graph:        g,
		Bundles:      buildBundles(source, f.Bundles),
		Watches:      buildWatches(source, f.Watch),
		OnDelete:     buildDeleteRecovery(f.OnDelete),
	}

	if err := l.validateBindings(project); err != nil {
		return nil, err
	}
	return project, nil
}

// mergeTasks replaces built-in tasks by name and appends new ones in name order.
func mergeTasks(defaults []domain.Task, overrides map[string]*TaskDTO) ([]domain.Task, error) {
	tasks := slices.Clone(defaults)

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := validateTaskName(name); err != nil {
			return nil, err
		}
		dto := overrides[name]
		if dto == nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "empty task definition"), "task", name)
		}

		task, err := buildTask(name, dto)
		if err != nil {
			return nil, err
		}

		idx := slices.IndexFunc(tasks, func(t domain.Task) bool { return t.Name == task.Name })
		if idx >= 0 {
			tasks[idx] = task
		} else {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func buildTask(name string, dto *TaskDTO) (domain.Task, error) {
	action := domain.Action(dto.Action)
	if !action.Valid() {
		return domain.Task{}, zerr.With(zerr.With(domain.ErrUnknownAction, "action", dto.Action), "task", name)
	}

	task := domain.Task{
		Name:         domain.NewInternedString(name),
		Action:       action,
		Sources:      domain.NewInternedStrings(cleanRelAll(dto.Src)),
		Outfile:      dto.Outfile,
		IncludePaths: domain.NewInternedStrings(cleanRelAll(dto.Include)),
		Dependencies: domain.NewInternedStrings(dto.DependsOn),
		After:        domain.NewInternedStrings(dto.After),
	}
	if dto.Dest != "" {
		task.Dest = domain.NewInternedString(cleanRel(dto.Dest))
	}
	if action == domain.ActionConcat && task.Outfile == "" {
		return domain.Task{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "concat task needs an outfile"), "task", name)
	}
	return task, nil
}

func buildBundles(source string, configured map[string]string) []domain.Bundle {
	if configured == nil {
		return domain.DefaultBundles(source)
	}

	bundles := make([]domain.Bundle, 0, len(configured))
	for name, entry := range configured {
		bundles = append(bundles, domain.Bundle{Name: cleanRel(name), Entry: cleanRel(entry)})
	}
	slices.SortFunc(bundles, func(a, b domain.Bundle) int { return strings.Compare(a.Name, b.Name) })
	return bundles
}

func buildWatches(source string, configured []WatchDTO) []domain.WatchBinding {
	if configured == nil {
		return domain.DefaultWatches(source)
	}

	watches := make([]domain.WatchBinding, len(configured))
	for i, w := range configured {
		watches[i] = domain.WatchBinding{Patterns: cleanRelAll(w.Patterns), Tasks: slices.Clone(w.Tasks)}
	}
	return watches
}

func buildDeleteRecovery(configured *OnDeleteDTO) domain.DeleteRecovery {
	if configured == nil {
		return domain.DefaultDeleteRecovery()
	}
	return domain.DeleteRecovery{Clean: configured.Clean, Rebuild: slices.Clone(configured.Run)}
}

// validateBindings checks that watch bindings and the delete policy name
// declared tasks.
func (l *Loader) validateBindings(p *domain.Project) error {
	check := func(name, origin string) (domain.Task, error) {
		task, ok := p.Graph.GetTask(domain.NewInternedString(name))
		if !ok {
			return task, zerr.With(zerr.With(domain.ErrUnknownWatchTask, "task", name), "binding", origin)
		}
		return task, nil
	}

	for _, w := range p.Watches {
		origin := strings.Join(w.Patterns, ", ")
		for _, name := range w.Tasks {
			task, err := check(name, origin)
			if err != nil {
				return err
			}
			if task.Action.Service() && l.Logger != nil {
				l.Logger.Warn(fmt.Sprintf("watch binding %q re-runs service task %q, which is already running", origin, name))
			}
		}
	}

	if p.OnDelete.Clean != "" {
		if _, err := check(p.OnDelete.Clean, "onDelete"); err != nil {
			return err
		}
	}
	for _, name := range p.OnDelete.Rebuild {
		if _, err := check(name, "onDelete"); err != nil {
			return err
		}
	}
	return nil
}

func parseSettle(value string) (time.Duration, error) {
	if value == "" {
		return domain.DefaultSettleWindow, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(domain.ErrInvalidSettleWindow, err.Error()), "settle", value)
	}
	if d < 0 {
		return 0, zerr.With(zerr.Wrap(domain.ErrInvalidSettleWindow, "must not be negative"), "settle", value)
	}
	return d, nil
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

func cleanRel(p string) string {
	return path.Clean(filepath.ToSlash(strings.TrimSpace(p)))
}

func cleanRelAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = cleanRel(p)
	}
	return out
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
// Unknown keys are rejected.
func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is chosen by the user
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(configFile))
	dec.KnownFields(true)
	if parseErr := dec.Decode(target); parseErr != nil && !errors.Is(parseErr, io.EOF) {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}

// validateTaskName checks if the task name is reserved or contains invalid characters.
func validateTaskName(name string) error {
	if name == domain.ReservedTaskName {
		return zerr.With(domain.ErrReservedTaskName, "task_name", name)
	}
	if !validTaskNameRegex.MatchString(name) {
		return zerr.With(domain.ErrInvalidTaskName, "task_name", name)
	}
	return nil
}
