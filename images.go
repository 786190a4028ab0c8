package pubcms

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	ogImageWidth   = 1200
	jpegQuality    = 80
	maxSourceBytes = 10 << 20 // 10MB
)

// processImage decodes src, scales it down to ogImageWidth if wider, and
// encodes it as JPEG.
func processImage(src io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > ogImageWidth {
		newH := h * ogImageWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, ogImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = ogImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// imageFetcher downloads featured images from the CMS CDN.
type imageFetcher struct {
	client *http.Client
}

func newImageFetcher(timeout time.Duration) *imageFetcher {
	return &imageFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *imageFetcher) fetch(ctx context.Context, src string) ([]byte, int, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, 0, 0, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, 0, 0, fmt.Errorf("fetch image: upstream returned %d", resp.StatusCode)
	}
	return processImage(io.LimitReader(resp.Body, maxSourceBytes))
}

func (a *App) handleOGImage(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	post, _, err := a.Cache.GetPost(ctx, slug, false)
	if err != nil {
		return cmsError(err)
	}
	src := post.Data.FeaturedImage
	if src == "" {
		return echo.ErrNotFound
	}

	cached, err := a.Store.GetImage(slug)
	switch {
	case err == nil && cached.Source == src:
		return c.Blob(http.StatusOK, "image/jpeg", cached.Data)
	case err != nil && !errors.Is(err, ErrSnapshotMissing):
		c.Logger().Errorf("load og image %s: %v", slug, err)
	}

	data, w, h, err := a.images.fetch(ctx, src)
	if err != nil {
		// The featured image changed but the new one is unreachable.
		if len(cached.Data) > 0 {
			c.Logger().Warnf("fetch og image %s: %v, serving previous image", slug, err)
			return c.Blob(http.StatusOK, "image/jpeg", cached.Data)
		}
		return echo.NewHTTPError(http.StatusBadGateway).WithInternal(err)
	}
	if err := a.Store.SaveImage(OGImage{
		Slug:      slug,
		Source:    src,
		Data:      data,
		Width:     w,
		Height:    h,
		FetchedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		c.Logger().Errorf("save og image %s: %v", slug, err)
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}
