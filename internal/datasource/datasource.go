// Package datasource defines where input bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens one input for reading. Implementations honour ctx both at open
// time and, where they can, on every Read.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}
