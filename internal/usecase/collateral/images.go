package collateral

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"lendledger/internal/domain/collateral"
	"lendledger/internal/domain/valuation"
)

// storeImages turns data: URIs and uploads into store references. Other
// references are kept as given.
func (u *Usecase) storeImages(ctx context.Context, refs []string, uploads []collateral.Image) ([]string, error) {
	out := make([]string, 0, len(refs)+len(uploads))
	for i, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, fmt.Errorf("image %d is empty: %w", i, collateral.ErrInvalidImage)
		}
		if !strings.HasPrefix(ref, "data:") {
			out = append(out, ref)
			continue
		}
		img, err := decodeDataURI(ref)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		uploads = append(uploads, img)
	}
	for _, img := range uploads {
		if u.images == nil {
			return nil, fmt.Errorf("image uploads are disabled: %w", collateral.ErrInvalidImage)
		}
		if len(img.Data) == 0 {
			return nil, fmt.Errorf("image %q is empty: %w", img.Name, collateral.ErrInvalidImage)
		}
		ref, err := u.images.Put(ctx, img)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, nil
}

// decodeDataURI accepts data:<mime>;base64,<payload>.
func decodeDataURI(s string) (collateral.Image, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return collateral.Image{}, collateral.ErrInvalidImage
	}
	ct := strings.TrimSuffix(header, ";base64")
	if ct == "" {
		ct = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return collateral.Image{}, fmt.Errorf("%w: %v", collateral.ErrInvalidImage, err)
	}
	return collateral.Image{ContentType: ct, Data: data}, nil
}

// photos resolves stored references for the gateway. Unknown references are
// passed through as URLs when they look like one.
func (u *Usecase) photos(ctx context.Context, refs []string) []valuation.Photo {
	out := make([]valuation.Photo, 0, len(refs))
	for _, ref := range refs {
		switch {
		case u.images != nil && u.images.Owns(ref):
			img, err := u.images.Get(ctx, ref)
			if err != nil {
				u.logger.WarnContext(ctx, "skip unreadable image", "ref", ref, "err", err)
				continue
			}
			out = append(out, valuation.Photo{Name: img.Name, ContentType: img.ContentType, Data: img.Data})
		case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
			out = append(out, valuation.Photo{URL: ref})
		}
	}
	return out
}

func (u *Usecase) quotePhotos(ctx context.Context, refs []string) ([]valuation.Photo, error) {
	out := make([]valuation.Photo, 0, len(refs))
	var rest []string
	for i, ref := range refs {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return nil, fmt.Errorf("image %d is empty: %w", i, collateral.ErrInvalidImage)
		}
		if !strings.HasPrefix(ref, "data:") {
			rest = append(rest, ref)
			continue
		}
		img, err := decodeDataURI(ref)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out = append(out, valuation.Photo{Name: fmt.Sprintf("image-%d", i), ContentType: img.ContentType, Data: img.Data})
	}
	return append(out, u.photos(ctx, rest)...), nil
}
