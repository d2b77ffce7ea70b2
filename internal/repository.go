package internal

import (
	"context"
	"io"
)

// Repository is a destination for snapshot artifacts (parquet parts and the
// catalog record).
type Repository interface {
	Write(ctx context.Context, key string, reader io.Reader) error
}
