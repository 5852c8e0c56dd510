package imagesource

import (
	"context"
	"fmt"
)

// Normalizer prepares image bytes for the upstream request. Implementations
// may downscale to a JPEG under a size budget; the loader treats the
// capability as opaque.
type Normalizer interface {
	Normalize(ctx context.Context, img Image) (Image, error)
}

// PassthroughNormalizer performs no transformation beyond enforcing a size
// budget. Downscaling implementations plug in via Loader's WithNormalizer.
type PassthroughNormalizer struct {
	// MaxBytes rejects images larger than the budget. Zero means no limit.
	MaxBytes int64
}

func (n PassthroughNormalizer) Normalize(_ context.Context, img Image) (Image, error) {
	if n.MaxBytes > 0 && int64(len(img.Data)) > n.MaxBytes {
		return Image{}, fmt.Errorf("image of %d bytes exceeds %d byte budget", len(img.Data), n.MaxBytes)
	}
	return img, nil
}
