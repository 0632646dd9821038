// Command render turns a selected_matches.json file into a schedule image
// without starting the server.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/youruser/matchboard/internal/config"
	"github.com/youruser/matchboard/internal/constants"
	fxmodules "github.com/youruser/matchboard/internal/fx"
	imagepkg "github.com/youruser/matchboard/internal/image"
	"github.com/youruser/matchboard/internal/logger"
	"github.com/youruser/matchboard/internal/matches"
	"github.com/youruser/matchboard/internal/render"
	"github.com/youruser/matchboard/internal/util"
)

func main() {
	in := flag.String("in", "selected_matches.json", "selection file to render")
	out := flag.String("out", "schedule.png", "output image path")
	title := flag.String("title", "", "title text (default from DEFAULT_TITLE)")
	background := flag.String("background", "", `background file, URL or "none" (default from DEFAULT_BACKGROUND)`)
	format := flag.String("format", "", "png or jpeg (default from the output extension)")
	quality := flag.Float64("quality", 0.92, "jpeg quality between 0 and 1")
	qr := flag.String("qr", "", "text to encode as a QR code in the title band")
	parallel := flag.Bool("parallel", false, "render the parallel matches list instead")
	flag.Parse()

	log := logger.New()
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))

	sel, err := matches.LoadSelectionFile(*in)
	if err != nil {
		log.Fatal().Err(err).Str("in", *in).Msg("failed to read selection")
	}
	ms := sel.Selected
	if *parallel {
		ms = sel.Parallel
	}

	f := *format
	if f == "" {
		f = filepath.Ext(*out)
	}
	imgFormat, err := imagepkg.ParseFormat(f)
	if err != nil {
		log.Fatal().Err(err).Msg("unsupported output format")
	}

	fm, err := fxmodules.ProvideFonts(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load fonts")
	}
	renderer := fxmodules.ProvideRenderer(cfg, fm, log)

	req := render.Request{
		Matches:    ms,
		Title:      *title,
		Background: *background,
		QRText:     *qr,
	}
	if req.Title == "" {
		req.Title = cfg.DefaultTitle
	}
	if req.Background == "" {
		req.Background = cfg.DefaultBackground
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.RenderTimeout)
	defer cancel()
	res, err := renderer.Render(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("render failed")
	}

	if err := util.EnsureDir(filepath.Dir(*out)); err != nil {
		log.Fatal().Err(err).Msg("failed to create output directory")
	}
	fp, err := os.Create(*out)
	if err != nil {
		log.Fatal().Err(err).Str("out", *out).Msg("failed to create output file")
	}
	if err := res.Encode(fp, imagepkg.EncodeOptions{Format: imgFormat, Quality: *quality}); err != nil {
		fp.Close()
		log.Fatal().Err(err).Msg("failed to write image")
	}
	if err := fp.Close(); err != nil {
		log.Fatal().Err(err).Msg("failed to write image")
	}

	log.Info().
		Str("out", *out).
		Int("matches", len(ms)).
		Int("width", res.Plan.Width).
		Int("height", res.Plan.Height).
		Msg("schedule written")
}
