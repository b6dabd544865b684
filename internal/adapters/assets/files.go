package assets

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/tend/internal/core/domain"
	"go.trai.ch/zerr"
)

// destination returns the absolute destination directory of task, which
// must lie inside the project root.
func destination(project *domain.Project, task *domain.Task) (string, error) {
	dest := filepath.Join(project.Root, filepath.FromSlash(task.Dest.String()))
	if err := ensureInside(project.Root, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func ensureInside(root, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return zerr.With(domain.ErrOutputPathOutsideRoot, "path", path)
	}
	return nil
}

// relToRoot returns path relative to the project root in slash form.
func relToRoot(project *domain.Project, path string) string {
	rel, err := filepath.Rel(project.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", path)
	}
	return nil
}

func copyFile(source, target string) (err error) {
	in, err := os.Open(source)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", source)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", target)
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, domain.FilePerm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", target)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, domain.ErrFileWriteFailed.Error()), "path", target)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "path", target)
	}
	return nil
}
