package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

type Local struct {
	Path string
}

func NewLocal(path string) *Local {
	return &Local{Path: path}
}

func (l *Local) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	f, err := os.Open(l.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissing, l.Path)
	}
	if err != nil {
		return nil, 0, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	if info.IsDir() {
		f.Close()
		return nil, 0, fmt.Errorf("%w: %s is a directory", ErrMissing, l.Path)
	}
	return f, info.Size(), nil
}

func (l *Local) String() string { return fmt.Sprintf("local(%s)", l.Path) }
