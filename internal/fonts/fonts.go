// Package fonts loads the typefaces used for schedule graphics, falling back
// to the embedded Go fonts when no custom TTF is configured.
package fonts

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Manager holds the parsed regular and bold fonts. Parsed fonts are safe to
// share; the faces created from them are not, so every caller gets its own.
type Manager struct {
	regular *opentype.Font
	bold    *opentype.Font
}

// New parses the fonts at regularPath and boldPath. An empty or unreadable
// path falls back to Go Regular / Go Bold.
func New(regularPath, boldPath string, logger zerolog.Logger) (*Manager, error) {
	regular, err := load(regularPath, goregular.TTF, logger)
	if err != nil {
		return nil, fmt.Errorf("regular font: %w", err)
	}
	bold, err := load(boldPath, gobold.TTF, logger)
	if err != nil {
		return nil, fmt.Errorf("bold font: %w", err)
	}
	return &Manager{regular: regular, bold: bold}, nil
}

// Default returns a Manager using only the embedded Go fonts.
func Default() (*Manager, error) {
	return New("", "", zerolog.Nop())
}

func load(path string, fallback []byte, logger zerolog.Logger) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		if custom, err := os.ReadFile(path); err != nil {
			logger.Warn().Err(err).Str("path", path).Msg("font unavailable, using embedded default")
		} else {
			data = custom
		}
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return parsed, nil
}

// Face returns a new face at size pixels (72 DPI).
func (m *Manager) Face(size float64, bold bool) (font.Face, error) {
	f := m.regular
	if bold {
		f = m.bold
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face at %.1fpx: %w", size, err)
	}
	return face, nil
}

// FaceOrBasic is Face with basicfont.Face7x13 as the last resort, so text
// is always drawn even if a face cannot be built.
func (m *Manager) FaceOrBasic(size float64, bold bool) font.Face {
	face, err := m.Face(size, bold)
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}
