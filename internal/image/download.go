package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"github.com/valyala/fasthttp"
	"github.com/vincent-petithory/dataurl"
	_ "golang.org/x/image/webp"

	"github.com/youruser/matchboard/internal/constants"
	"github.com/youruser/matchboard/internal/util"
)

// svgRasterSize is the square size SVG logos are rasterised at before they
// are scaled into a logo slot.
const svgRasterSize = 256

var (
	ErrNotFound      = errors.New("image source not found")
	ErrFileSource    = errors.New("local file sources are not allowed")
	ErrImageTooLarge = errors.New("image too large")
)

// Fetcher returns the raw bytes behind an image source.
type Fetcher interface {
	Fetch(ctx context.Context, src string) ([]byte, error)
}

// HTTPFetcher downloads http(s) URLs with a pooled fasthttp client. Bodies
// larger than constants.MaxImageBytes are rejected, and unless allowPrivate
// is set, hosts resolving to loopback, private or link-local addresses are
// refused at dial time.
type HTTPFetcher struct {
	client  *fasthttp.Client
	timeout time.Duration
}

func NewHTTPFetcher(timeout time.Duration, allowPrivate bool) *HTTPFetcher {
	client := &fasthttp.Client{
		MaxConnsPerHost:     64,
		ReadTimeout:         timeout,
		WriteTimeout:        timeout,
		MaxIdleConnDuration: time.Minute,
		MaxResponseBodySize: constants.MaxImageBytes,
	}
	if !allowPrivate {
		client.Dial = publicDialer(timeout)
	}
	return &HTTPFetcher{client: client, timeout: timeout}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(src)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "image/*")

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(f.timeout)
	}
	if err := f.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("non-200 response: %d", resp.StatusCode())
	}
	// the response buffer goes back to the pool on return
	return append([]byte(nil), resp.Body()...), nil
}

// SourceFetcher dispatches on the kind of source: data URLs are decoded in
// place, http(s) URLs go to HTTP, and anything else is read as a file below
// Root. An empty Root disables file sources.
type SourceFetcher struct {
	HTTP Fetcher
	Root string
}

func (f SourceFetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		du, err := dataurl.DecodeString(src)
		if err != nil {
			return nil, fmt.Errorf("decode data url: %w", err)
		}
		if len(du.Data) > constants.MaxImageBytes {
			return nil, fmt.Errorf("%w: data url of %d bytes", ErrImageTooLarge, len(du.Data))
		}
		return du.Data, nil
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return f.HTTP.Fetch(ctx, src)
	}
	if f.Root == "" {
		return nil, ErrFileSource
	}
	path, err := util.SafeJoin(f.Root, src)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, src)
	}
	if err != nil {
		return nil, err
	}
	if info.Size() > constants.MaxImageBytes {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrImageTooLarge, src, info.Size())
	}
	return os.ReadFile(path)
}

// Decode decodes raster images (png, jpeg, gif, bmp, tiff, webp) and
// rasterises SVG documents. Raster images declaring more than
// constants.MaxImagePixels pixels are rejected before any pixel buffer is
// allocated.
func Decode(b []byte) (image.Image, error) {
	if isSVG(b) {
		return rasterizeSVG(b, svgRasterSize)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	if int64(cfg.Width)*int64(cfg.Height) > constants.MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func isSVG(b []byte) bool {
	head := b
	if len(head) > 512 {
		head = head[:512]
	}
	head = bytes.TrimSpace(head)
	return bytes.HasPrefix(head, []byte("<svg")) ||
		(bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg")))
}

// rasterizeSVG renders an SVG centered in a size×size transparent image,
// preserving its aspect ratio.
func rasterizeSVG(b []byte, size int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(size), float64(size)
	}
	scale := float64(size) / max(w, h)
	outW, outH := w*scale, h*scale
	icon.SetTarget((float64(size)-outW)/2, (float64(size)-outH)/2, outW, outH)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(size, size, scanner), 1.0)
	return img, nil
}
