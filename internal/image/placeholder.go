package imagepkg

import (
	"image"
	"image/color"
	"strings"

	"github.com/fogleman/gg"

	"github.com/youruser/matchboard/internal/fonts"
)

const (
	PlaceholderSize     = 49
	placeholderFontSize = 20
	DefaultInitials     = "TM"
)

var placeholderFill = color.RGBA{R: 0x82, G: 0x82, B: 0x82, A: 0xff}

// Initials derives the placeholder text for a team name: the first two
// characters of a single word, or the first character of each of the first
// two words, uppercased. Words are separated by single spaces.
func Initials(name string) string {
	if name == "" {
		return DefaultInitials
	}
	words := strings.Split(name, " ")
	if len(words) == 1 {
		r := []rune(name)
		if len(r) > 2 {
			r = r[:2]
		}
		return strings.ToUpper(string(r))
	}
	return strings.ToUpper(firstRune(words[0]) + firstRune(words[1]))
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// Placeholders draws circular initials avatars.
type Placeholders struct {
	fonts *fonts.Manager
}

func NewPlaceholders(fm *fonts.Manager) *Placeholders {
	return &Placeholders{fonts: fm}
}

// Make draws the avatar for a team name. The same name always yields the
// same pixels.
func (p *Placeholders) Make(name string) image.Image {
	return p.draw(Initials(name))
}

func (p *Placeholders) draw(initials string) image.Image {
	const c = PlaceholderSize / 2.0
	dc := gg.NewContext(PlaceholderSize, PlaceholderSize)
	dc.SetColor(placeholderFill)
	dc.DrawCircle(c, c, c)
	dc.Fill()

	face := p.fonts.FaceOrBasic(placeholderFontSize, true)
	dc.SetFontFace(face)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, c, c, 0.5, 0.5)
	return dc.Image()
}

// NewCache starts an empty per-session placeholder cache.
func (p *Placeholders) NewCache() *PlaceholderCache {
	return &PlaceholderCache{
		maker:      p,
		byName:     make(map[string]image.Image),
		byInitials: make(map[string]image.Image),
	}
}

// PlaceholderCache lazily builds placeholders for one render session, keyed
// by team name. Names with equal initials share one image. It is not safe
// for concurrent use.
type PlaceholderCache struct {
	maker      *Placeholders
	byName     map[string]image.Image
	byInitials map[string]image.Image
}

// Prime builds placeholders for the given team names up front.
func (c *PlaceholderCache) Prime(names ...string) {
	for _, n := range names {
		c.For(n)
	}
}

// For returns the placeholder for a team name, or the default one when the
// name is empty.
func (c *PlaceholderCache) For(name string) image.Image {
	if name == "" {
		return c.Default()
	}
	if img, ok := c.byName[name]; ok {
		return img
	}
	img := c.get(Initials(name))
	c.byName[name] = img
	return img
}

// Default returns the generic "TM" placeholder.
func (c *PlaceholderCache) Default() image.Image {
	return c.get(DefaultInitials)
}

// Len reports how many team names have a cached placeholder.
func (c *PlaceholderCache) Len() int {
	return len(c.byName)
}

func (c *PlaceholderCache) get(initials string) image.Image {
	if img, ok := c.byInitials[initials]; ok {
		return img
	}
	img := c.maker.draw(initials)
	c.byInitials[initials] = img
	return img
}
