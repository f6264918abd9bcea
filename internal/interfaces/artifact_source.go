package interfaces

import (
	"context"
	"io"
)

// ArtifactSource opens the protected file. Open returns
// artifact.ErrMissing when the file is not in storage.
type ArtifactSource interface {
	Open(ctx context.Context) (io.ReadCloser, int64, error)
}
