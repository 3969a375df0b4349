package ports

import (
	"context"
	"io"
)

// MediaStore uploads user media (avatar, cover image) and returns a public
// URL. Storage details are an infrastructure concern; the services only keep
// the returned URL on the user record.
type MediaStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
}
