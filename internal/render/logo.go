package render

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// MaxLogoBytes caps uploaded and fetched logos.
	MaxLogoBytes = 5 << 20
	// MaxLogoSide caps either dimension of a logo before it is decoded.
	MaxLogoSide = 4096
)

var (
	ErrUnsupportedLogo = errors.New("unsupported logo reference")
	ErrUntrustedLogo   = errors.New("logo URL is not on a trusted host")
	ErrLogoTooLarge    = errors.New("logo dimensions are too large")
)

// DataURL embeds b as a base64 data URL, the form logos take when no object
// store is configured.
func DataURL(contentType string, b []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// decodeDataURL accepts only base64 data URLs.
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL is not base64", ErrUnsupportedLogo)
	}

	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decoding data URL: %w", err)
	}

	return b, nil
}

func fetchLogo(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d for url %s", resp.StatusCode, url)
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading logo: %w", err)
	}

	if len(b) > MaxLogoBytes {
		return nil, fmt.Errorf("logo exceeds %d bytes", MaxLogoBytes)
	}

	return b, nil
}

// CheckLogo reads only the image header and returns the format. Images with
// a side over MaxLogoSide are rejected before any pixels are allocated.
func CheckLogo(b []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return "", fmt.Errorf("decoding logo header: %w", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxLogoSide || cfg.Height > MaxLogoSide {
		return "", fmt.Errorf("%w: %dx%d", ErrLogoTooLarge, cfg.Width, cfg.Height)
	}

	return format, nil
}

// trusted reports whether url lives under one of bases.
func trusted(url string, bases []string) bool {
	for _, base := range bases {
		base = strings.TrimSuffix(base, "/")
		if base != "" && strings.HasPrefix(url, base+"/") {
			return true
		}
	}

	return false
}

// LoadLogo resolves a logo reference to an image. Data URLs always load;
// http(s) URLs are fetched only when they sit under one of trustedBases.
func LoadLogo(ctx context.Context, client *http.Client, ref string, trustedBases ...string) (image.Image, error) {
	var (
		b   []byte
		err error
	)

	switch {
	case strings.HasPrefix(ref, "data:"):
		b, err = decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		if !trusted(ref, trustedBases) {
			return nil, fmt.Errorf("%w: %s", ErrUntrustedLogo, ref)
		}

		b, err = fetchLogo(ctx, client, ref)
	default:
		return nil, ErrUnsupportedLogo
	}

	if err != nil {
		return nil, err
	}

	if _, err := CheckLogo(b); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decoding logo: %w", err)
	}

	return img, nil
}
