// Package assets implements the file-producing task actions: copy, concat,
// sass, bundle and clean.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/tend/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.Executor = (*Executor)(nil)

// Executor runs file-producing tasks against a project.
type Executor struct {
	resolver ports.InputResolver
	hasher   ports.Hasher
	styles   ports.StyleCompiler
	prefixer ports.Prefixer
	bundler  ports.Bundler
	reloader ports.LiveReloader
	logger   ports.Logger
}

// NewExecutor creates an Executor. Produced files are announced on reloader.
func NewExecutor(
	resolver ports.InputResolver,
	hasher ports.Hasher,
	styles ports.StyleCompiler,
	prefixer ports.Prefixer,
	bundler ports.Bundler,
	reloader ports.LiveReloader,
	logger ports.Logger,
) *Executor {
	return &Executor{
		resolver: resolver,
		hasher:   hasher,
		styles:   styles,
		prefixer: prefixer,
		bundler:  bundler,
		reloader: reloader,
		logger:   logger,
	}
}

// Close stops the Sass compiler.
func (e *Executor) Close() error {
	return e.styles.Close()
}

// Execute runs task. Group tasks succeed without doing anything; service
// actions are not handled here.
func (e *Executor) Execute(
	ctx context.Context, project *domain.Project, task *domain.Task, out io.Writer,
) (domain.TaskResult, error) {
	result := domain.TaskResult{Task: task.Name.String()}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	var err error
	switch task.Action {
	case domain.ActionCopy:
		err = e.copy(project, task, out, &result)
	case domain.ActionConcat:
		err = e.concat(project, task, out, &result)
	case domain.ActionSass:
		err = e.sass(ctx, project, task, out, &result)
	case domain.ActionBundle:
		err = e.bundle(ctx, project, task, out, &result)
	case domain.ActionClean:
		err = e.clean(project, task, out)
	case domain.ActionGroup:
	default:
		err = zerr.With(domain.ErrUnsupportedAction, "action", string(task.Action))
	}

	if err != nil {
		result.Err = err
		return result, err
	}

	if len(result.Produced) > 0 && !result.Streamed {
		e.announce(project, result.Produced, false)
	}

	return result, nil
}

func (e *Executor) copy(project *domain.Project, task *domain.Task, out io.Writer, result *domain.TaskResult) error {
	dest, err := destination(project, task)
	if err != nil {
		return err
	}

	files, err := e.resolver.Resolve(project.Root, task.SourceStrings())
	if err != nil {
		return err
	}

	written := 0
	for _, f := range files {
		target := filepath.Join(dest, filepath.FromSlash(f.Rel))

		same, err := e.unchanged(f.Path, target)
		if err != nil {
			return err
		}
		if !same {
			if err := copyFile(f.Path, target); err != nil {
				return err
			}
			written++
		}
		result.Produced = append(result.Produced, relToRoot(project, target))
	}

	_, _ = fmt.Fprintf(out, "copied %d file(s) to %s (%d unchanged)\n", written, task.Dest, len(files)-written)
	return nil
}

func (e *Executor) concat(project *domain.Project, task *domain.Task, out io.Writer, result *domain.TaskResult) error {
	dest, err := destination(project, task)
	if err != nil {
		return err
	}

	files, err := e.resolver.Resolve(project.Root, task.SourceStrings())
	if err != nil {
		return err
	}

	if len(files) == 0 {
		_, _ = fmt.Fprintln(out, "no scripts matched, nothing to concatenate")
		return nil
	}

	parts := make([][]byte, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", f.Path)
		}
		parts = append(parts, data)
	}

	target := filepath.Join(dest, task.Outfile)
	if err := e.writeIfChanged(target, bytes.Join(parts, []byte("\n"))); err != nil {
		return err
	}
	result.Produced = append(result.Produced, relToRoot(project, target))

	_, _ = fmt.Fprintf(out, "concatenated %d file(s) into %s\n", len(files), relToRoot(project, target))
	return nil
}

func (e *Executor) sass(
	ctx context.Context, project *domain.Project, task *domain.Task, out io.Writer, result *domain.TaskResult,
) error {
	dest, err := destination(project, task)
	if err != nil {
		return err
	}

	files, err := e.resolver.Resolve(project.Root, task.SourceStrings())
	if err != nil {
		return err
	}

	includes := make([]string, 0, len(task.IncludePaths))
	for _, p := range task.IncludePathStrings() {
		includes = append(includes, filepath.Join(project.Root, filepath.FromSlash(p)))
	}

	for _, f := range files {
		// Partials are only compiled through the stylesheets that use them.
		if strings.HasPrefix(filepath.Base(f.Path), "_") {
			continue
		}

		compiled, err := e.styles.Compile(ctx, ports.StyleRequest{Entry: f.Path, IncludePaths: includes})
		if errors.Is(err, domain.ErrStyleCompileFailed) {
			e.logger.Error(err)
			_, _ = fmt.Fprintf(out, "%s failed to compile, keeping previous output\n", relToRoot(project, f.Path))
			result.Stale = true
			continue
		}
		if err != nil {
			return err
		}

		rel := strings.TrimSuffix(filepath.FromSlash(f.Rel), filepath.Ext(f.Rel)) + ".css"
		cssPath := filepath.Join(dest, rel)
		mapName := filepath.Base(cssPath) + ".map"

		prefixed, err := e.prefixer.Prefix(ports.PrefixRequest{
			CSS:       compiled.CSS,
			SourceMap: compiled.SourceMap,
			Filename:  filepath.Base(cssPath),
		})
		if err != nil {
			return err
		}

		css := append(bytes.TrimRight(prefixed.CSS, "\n"), []byte("\n/*# sourceMappingURL="+mapName+" */\n")...)
		if err := e.writeIfChanged(cssPath, css); err != nil {
			return err
		}
		if err := e.writeIfChanged(cssPath+".map", prefixed.SourceMap); err != nil {
			return err
		}

		result.Produced = append(result.Produced, relToRoot(project, cssPath), relToRoot(project, cssPath+".map"))
		_, _ = fmt.Fprintf(out, "compiled %s\n", relToRoot(project, cssPath))
	}

	return nil
}

func (e *Executor) bundle(
	ctx context.Context, project *domain.Project, task *domain.Task, out io.Writer, result *domain.TaskResult,
) error {
	dest, err := destination(project, task)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	produced := make([][]string, len(project.Bundles))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range project.Bundles {
		g.Go(func() error {
			target := filepath.Join(dest, filepath.FromSlash(b.Name))
			if err := ensureInside(project.Root, target); err != nil {
				return err
			}

			res, err := e.bundler.Bundle(gctx, ports.BundleRequest{
				Entry:   filepath.Join(project.Root, filepath.FromSlash(b.Entry)),
				Outfile: target,
			})
			if errors.Is(err, domain.ErrBundleFailed) {
				mu.Lock()
				defer mu.Unlock()
				e.logger.Error(err)
				_, _ = fmt.Fprintf(out, "%s failed to bundle\n", b.Name)
				result.Stale = true
				return nil
			}
			if err != nil {
				return err
			}

			if err := writeFile(target, res.Code); err != nil {
				return err
			}
			if err := writeFile(filepath.Join(dest, filepath.FromSlash(b.MapName())), res.SourceMap); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			produced[i] = []string{relToRoot(project, target), relToRoot(project, target+".map")}
			_, _ = fmt.Fprintf(out, "bundled %s\n", b.Name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range produced {
		result.Produced = append(result.Produced, p...)
	}
	if len(result.Produced) > 0 {
		e.announce(project, result.Produced, true)
		result.Streamed = true
	}
	return nil
}

func (e *Executor) clean(project *domain.Project, task *domain.Task, out io.Writer) error {
	dest, err := destination(project, task)
	if err != nil {
		return err
	}
	if dest == filepath.Clean(project.Root) {
		return zerr.With(domain.ErrOutputPathOutsideRoot, "path", dest)
	}

	if err := os.RemoveAll(dest); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFailedToCleanOutput.Error()), "path", dest)
	}

	_, _ = fmt.Fprintf(out, "removed %s\n", task.Dest)
	return nil
}

// announce tells connected browsers about produced files. Paths are given
// relative to the output directory; files outside it are not served.
func (e *Executor) announce(project *domain.Project, produced []string, inject bool) {
	if e.reloader == nil {
		return
	}

	output := filepath.Join(project.Root, filepath.FromSlash(project.OutputDir))
	paths := make([]string, 0, len(produced))
	for _, p := range produced {
		rel, err := filepath.Rel(output, filepath.Join(project.Root, filepath.FromSlash(p)))
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		paths = append(paths, filepath.ToSlash(rel))
	}
	if len(paths) == 0 {
		return
	}

	if inject {
		e.reloader.Inject(paths)
	} else {
		e.reloader.Reload(paths)
	}
}

// unchanged reports whether target already holds the content of source.
func (e *Executor) unchanged(source, target string) (bool, error) {
	if _, err := os.Stat(target); err != nil {
		return false, nil //nolint:nilerr // a missing target is simply out of date
	}

	want, err := e.hasher.HashFile(source)
	if err != nil {
		return false, err
	}
	have, err := e.hasher.HashFile(target)
	if err != nil {
		return false, err
	}
	return want == have, nil
}

func (e *Executor) writeIfChanged(target string, data []byte) error {
	if _, err := os.Stat(target); err == nil {
		have, err := e.hasher.HashFile(target)
		if err == nil && have == e.hasher.HashBytes(data) {
			return nil
		}
	}
	return writeFile(target, data)
}
