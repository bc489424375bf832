package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder for image.DecodeConfig
	_ "image/jpeg" // register JPEG decoder for image.DecodeConfig
	_ "image/png"  // register PNG decoder for image.DecodeConfig
	"io"
	"net/http"
	"time"

	_ "golang.org/x/image/bmp"  // register BMP decoder for image.DecodeConfig
	_ "golang.org/x/image/tiff" // register TIFF decoder for image.DecodeConfig
	_ "golang.org/x/image/webp" // register WebP decoder for image.DecodeConfig

	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

// DefaultProbeLimit is how many bytes are read to find an image header
const DefaultProbeLimit = 1 << 20

// Prober learns image dimensions by decoding only the image header
type Prober struct {
	client *http.Client
	limit  int64
}

// NewProber creates a prober. A nil client gets a 10 second timeout.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Prober{client: client, limit: DefaultProbeLimit}
}

// Probe fetches url and decodes its image config
func (p *Prober) Probe(ctx context.Context, url string) (Dimensions, error) {
	const op = "media.Probe"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Dimensions{}, werrors.NewError("INVALID_INPUT", "invalid media url", op, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Dimensions{}, werrors.NewError("UNAVAILABLE", "media fetch failed", op, fmt.Errorf("%w: %v", werrors.ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Dimensions{}, werrors.NewError(
			"UNAVAILABLE",
			fmt.Sprintf("media fetch returned HTTP %d", resp.StatusCode),
			op,
			werrors.ErrUnavailable,
		)
	}

	return DecodeDimensions(io.LimitReader(resp.Body, p.limit))
}

// DecodeDimensions reads an image header from r
func DecodeDimensions(r io.Reader) (Dimensions, error) {
	const op = "media.DecodeDimensions"

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return Dimensions{}, werrors.NewError("INVALID_INPUT", "unrecognized image", op, fmt.Errorf("%w: %v", werrors.ErrInvalidInput, err))
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}
