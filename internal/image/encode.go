package imagepkg

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// EncodeOptions selects the output format. Quality is on a 0–1 scale and
// only affects lossy formats; zero means full quality.
type EncodeOptions struct {
	Format  imaging.Format
	Quality float64
}

// DefaultEncodeOptions is lossless PNG.
var DefaultEncodeOptions = EncodeOptions{Format: imaging.PNG, Quality: 1}

// ParseFormat maps "png", "jpeg", "image/jpeg", ".jpg" and friends to a
// format. The empty string means PNG.
func ParseFormat(s string) (imaging.Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "image/")
	if s == "" {
		return imaging.PNG, nil
	}
	if !strings.HasPrefix(s, ".") {
		s = "." + s
	}
	f, err := imaging.FormatFromExtension(s)
	if err != nil {
		return 0, fmt.Errorf("unsupported image format %q: %w", s, err)
	}
	return f, nil
}

// ContentType returns the MIME type for a format.
func ContentType(f imaging.Format) string {
	switch f {
	case imaging.JPEG:
		return "image/jpeg"
	case imaging.GIF:
		return "image/gif"
	case imaging.TIFF:
		return "image/tiff"
	case imaging.BMP:
		return "image/bmp"
	}
	return "image/png"
}

func jpegQuality(q float64) int {
	if q <= 0 || q > 1 {
		return 100
	}
	return max(1, int(math.Round(q*100)))
}

// Encode writes img to w.
func Encode(w io.Writer, img image.Image, opts EncodeOptions) error {
	var err error
	switch opts.Format {
	case imaging.JPEG:
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(opts.Quality)))
	case imaging.PNG:
		err = imaging.Encode(w, img, imaging.PNG, imaging.PNGCompressionLevel(png.DefaultCompression))
	default:
		err = imaging.Encode(w, img, opts.Format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", opts.Format, err)
	}
	return nil
}
