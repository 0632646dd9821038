package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/youruser/matchboard/internal/api"
	"github.com/youruser/matchboard/internal/config"
	"github.com/youruser/matchboard/internal/database"
	"github.com/youruser/matchboard/internal/events"
	"github.com/youruser/matchboard/internal/fonts"
	imagepkg "github.com/youruser/matchboard/internal/image"
	"github.com/youruser/matchboard/internal/logger"
	"github.com/youruser/matchboard/internal/pandascore"
	"github.com/youruser/matchboard/internal/render"
	"github.com/youruser/matchboard/internal/store"
)

func ProvideFonts(cfg *config.Config, logger zerolog.Logger) (*fonts.Manager, error) {
	return fonts.New(cfg.FontRegular, cfg.FontBold, logger)
}

// ProvideRenderer wires the compositor: logos come from URLs only and go
// through the relay rewrite and the memo; backgrounds may also be files below
// the assets directory.
func ProvideRenderer(cfg *config.Config, fm *fonts.Manager, logger zerolog.Logger) *render.Renderer {
	httpFetcher := imagepkg.NewHTTPFetcher(cfg.FetchTimeout, cfg.AllowPrivateFetch)
	rewriter := imagepkg.Rewriter{RelayURL: cfg.RelayURL, Hosts: cfg.ProxyHosts}

	logos := imagepkg.NewResolver(
		imagepkg.SourceFetcher{HTTP: httpFetcher},
		rewriter,
		imagepkg.NewMemo(cfg.LogoCacheSize, cfg.LogoCacheTTL),
		logger.With().Str("component", "logos").Logger(),
	)
	backgrounds := imagepkg.NewResolver(
		imagepkg.SourceFetcher{HTTP: httpFetcher, Root: cfg.AssetsDir},
		rewriter,
		nil,
		logger.With().Str("component", "backgrounds").Logger(),
	)
	return render.NewRenderer(
		logos,
		backgrounds,
		imagepkg.NewPlaceholders(fm),
		render.GGSurfaceFactory(fm),
		logger,
	)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// storage
	fx.Provide(store.NewMatchStore),
	fx.Provide(events.NewBroker),
	// upstream
	fx.Provide(fx.Annotate(pandascore.NewClient, fx.As(new(api.UpcomingSource)))),
	// rendering
	fx.Provide(ProvideFonts),
	fx.Provide(ProvideRenderer),
	// http
	fx.Provide(api.NewHandler),
)
