// Package render composes schedule graphics. A render session resolves logos
// and the background concurrently with computing the layout, then paints the
// plan onto a Surface.
package render

import (
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/matchboard/internal/constants"
	"github.com/youruser/matchboard/internal/geometry"
	imagepkg "github.com/youruser/matchboard/internal/image"
	"github.com/youruser/matchboard/internal/layout"
	"github.com/youruser/matchboard/internal/matches"
)

// NoBackground selects the gradient explicitly.
const NoBackground = "none"

const (
	backgroundOffset = -15
	qrX, qrY         = 24, 9
)

var (
	gradientTop    = color.RGBA{R: 0x1e, G: 0x29, B: 0x3b, A: 0xff}
	gradientBottom = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	overlayColor   = color.NRGBA{A: 77}                      // rgba(0,0,0,0.3)
	rowFill        = color.NRGBA{R: 58, G: 58, B: 58, A: 128} // rgba(58,58,58,0.5)
	titleColor     = color.White
	timeColor      = color.RGBA{R: 0x9c, G: 0xa3, B: 0xaf, A: 0xff}
	mutedColor     = color.RGBA{R: 0x6b, G: 0x72, B: 0x80, A: 0xff}
	nameColor      = color.White

	titleFont      = Font{Size: 42, Bold: true}
	timeFont       = Font{Size: 36, Bold: true}
	vsFont         = Font{Size: 20}
	nameFont       = Font{Size: 24, Bold: true}
	tournamentFont = Font{Size: 16}
)

// Request is the input of one render.
type Request struct {
	Matches []matches.Match
	Title   string
	// Background is a file path below the assets root, an http(s) or data
	// URL, "none" or empty. Anything that fails to load falls back to the
	// gradient.
	Background string
	// QRText, when set, adds a QR code to the left of the title band.
	QRText string
}

// Result is a finished render.
type Result struct {
	Plan          layout.Plan
	Image         image.Image
	LogosResolved int
	Background    bool
}

// Encode writes the rendered image in the requested format.
func (r *Result) Encode(w io.Writer, opts imagepkg.EncodeOptions) error {
	return imagepkg.Encode(w, r.Image, opts)
}

// Renderer produces schedule graphics. It holds no per-render state and is
// safe for concurrent use.
type Renderer struct {
	resolver     *imagepkg.Resolver
	backgrounds  *imagepkg.Resolver
	placeholders *imagepkg.Placeholders
	newSurface   SurfaceFactory
	logger       zerolog.Logger
}

func NewRenderer(
	resolver *imagepkg.Resolver,
	backgrounds *imagepkg.Resolver,
	placeholders *imagepkg.Placeholders,
	newSurface SurfaceFactory,
	logger zerolog.Logger,
) *Renderer {
	return &Renderer{
		resolver:     resolver,
		backgrounds:  backgrounds,
		placeholders: placeholders,
		newSurface:   newSurface,
		logger:       logger,
	}
}

// Render runs one render session. Missing logos, a missing background and
// malformed match fields all degrade gracefully; no content problem makes it
// fail.
func (r *Renderer) Render(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	title := req.Title
	if title == "" {
		title = constants.DefaultTitle
	}

	var (
		logos      imagepkg.LogoCache
		background image.Image
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logos = r.resolver.ResolveLogos(gctx, matches.LogoURLs(req.Matches))
		return nil
	})
	g.Go(func() error {
		background = r.loadBackground(gctx, req.Background)
		return nil
	})
	plan := layout.ComputePlan(req.Matches, title)
	_ = g.Wait()

	s := &session{
		surface:      r.newSurface(plan.Width, plan.Height),
		logos:        logos,
		placeholders: r.placeholders.NewCache(),
		logger:       r.logger,
	}
	s.placeholders.Prime(matches.TeamNames(req.Matches)...)
	s.paintBackground(plan, background)
	s.paintQR(req.QRText)
	s.paintTitle(plan)
	for _, row := range plan.Rows {
		s.paintRow(row)
	}

	r.logger.Info().
		Int("matches", len(plan.Rows)).
		Int("logos", len(logos)).
		Bool("background", background != nil).
		Int("width", plan.Width).
		Int("height", plan.Height).
		Dur("took", time.Since(start)).
		Msg("schedule rendered")

	return &Result{
		Plan:          plan,
		Image:         s.surface.Image(),
		LogosResolved: len(logos),
		Background:    background != nil,
	}, nil
}

func (r *Renderer) loadBackground(ctx context.Context, src string) image.Image {
	if src == "" || src == NoBackground || r.backgrounds == nil {
		return nil
	}
	img, err := r.backgrounds.Load(ctx, src)
	if err != nil {
		r.logger.Warn().Err(err).Str("background", src).Msg("failed to load background image, using gradient")
		return nil
	}
	return img
}

// session is the mutable state of one render.
type session struct {
	surface      Surface
	logos        imagepkg.LogoCache
	placeholders *imagepkg.PlaceholderCache
	logger       zerolog.Logger
}

func (s *session) paintBackground(plan layout.Plan, bg image.Image) {
	w, h := float64(plan.Width), float64(plan.Height)
	s.surface.FillVerticalGradient(0, 0, w, h, gradientTop, gradientBottom)
	if bg == nil {
		return
	}
	bg = visibleBackground(bg, w, h)
	if bg == nil {
		return
	}
	bb := bg.Bounds()
	s.surface.DrawImage(bg, 0, backgroundOffset, w, geometry.ScaleToWidth(bb.Dx(), bb.Dy(), w))
	s.surface.FillRect(0, 0, w, h, overlayColor)
}

// visibleBackground crops bg to the source rows that land on a w×h canvas
// once it is scaled to width w and shifted by backgroundOffset. The scaled
// image never exceeds the canvas by more than one source row.
func visibleBackground(bg image.Image, w, h float64) image.Image {
	bb := bg.Bounds()
	if bb.Dx() <= 0 || bb.Dy() <= 0 {
		return nil
	}
	scale := w / float64(bb.Dx())
	rows := int(math.Ceil((h - backgroundOffset) / scale))
	if rows < 1 {
		rows = 1
	}
	if rows >= bb.Dy() {
		return bg
	}
	return imaging.Crop(bg, image.Rect(bb.Min.X, bb.Min.Y, bb.Max.X, bb.Min.Y+rows))
}

func (s *session) paintQR(text string) {
	if text == "" {
		return
	}
	qr, err := imagepkg.GenerateQRImage(text, constants.QRSize)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to generate qr code")
		return
	}
	s.surface.DrawImage(qr, qrX, qrY, constants.QRSize, constants.QRSize)
}

func (s *session) paintTitle(plan layout.Plan) {
	s.surface.SetFont(titleFont)
	a := plan.TitleAnchor
	s.surface.DrawString(plan.Title, a.X, a.Y, a.Align, titleColor)
}

func (s *session) paintRow(row layout.Row) {
	sf := s.surface
	m := row.Match

	geometry.RoundedRectPath(sf, row.Box.X, row.Box.Y, row.Box.W, row.Box.H, row.Radius)
	sf.Fill(rowFill)

	sf.SetFont(timeFont)
	sf.DrawString(m.TimeLabel(), row.Time.X, row.Time.Y, row.Time.Align, timeColor)

	sf.SetFont(vsFont)
	sf.DrawString("vs", row.VS.X, row.VS.Y, row.VS.Align, mutedColor)

	s.paintTeam(m.Team1, row.Team1)
	s.paintTeam(m.Team2, row.Team2)

	if m.Tournament != "" {
		sf.SetFont(tournamentFont)
		sf.DrawString(m.Tournament, row.Tournament.X, row.Tournament.Y, row.Tournament.Align, mutedColor)
	}
}

func (s *session) paintTeam(team matches.Team, slot layout.TeamSlot) {
	s.surface.SetFont(nameFont)
	name := geometry.TruncateToWidth(s.surface.MeasureString, team.DisplayName(), slot.NameMaxWidth)
	s.paintLogo(team, slot.Logo)
	s.surface.DrawString(name, slot.Name.X, slot.Name.Y, slot.Name.Align, nameColor)
}

// paintLogo draws the team logo fitted into its slot, or the team's
// placeholder when the logo did not resolve. A failure while drawing falls
// back to the default placeholder.
func (s *session) paintLogo(team matches.Team, slot layout.Rect) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Str("team", team.Name).Msg("error drawing team logo")
			s.paintDefault(slot)
		}
	}()

	if img, ok := s.logos[team.Logo]; ok && team.Logo != "" {
		b := img.Bounds()
		if b.Dx() > 0 && b.Dy() > 0 {
			x, y, w, h := geometry.FitSquare(b.Dx(), b.Dy(), slot.X, slot.Y, slot.W)
			s.surface.DrawImage(img, x, y, w, h)
			return
		}
	}
	s.surface.DrawImage(s.placeholders.For(team.Name), slot.X, slot.Y, slot.W, slot.H)
}

func (s *session) paintDefault(slot layout.Rect) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error().Interface("panic", rec).Msg("failed to draw default placeholder")
		}
	}()
	s.surface.DrawImage(s.placeholders.Default(), slot.X, slot.Y, slot.W, slot.H)
}
