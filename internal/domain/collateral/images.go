package collateral

import (
	"context"
	"errors"
)

var ErrImageNotFound = errors.New("collateral image not found")

type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// ImageStore keeps uploaded photos and hands back an opaque reference that
// is stored in ImagePaths.
type ImageStore interface {
	Put(ctx context.Context, img Image) (ref string, err error)
	Get(ctx context.Context, ref string) (*Image, error)
	// Owns reports whether ref was issued by this store.
	Owns(ref string) bool
}
