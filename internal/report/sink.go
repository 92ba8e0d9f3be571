package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DirSink writes reports into a directory, replacing any previous file of
// the same name only once the new one is complete.
type DirSink struct {
	Dir string
}

// Path returns where a report named name is written.
func (s DirSink) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s DirSink) Deliver(name string, r io.Reader) (int64, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, "."+name+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return 0, fmt.Errorf("move report into place: %w", err)
	}
	return n, nil
}
