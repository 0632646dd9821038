package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/youruser/matchboard/internal/config"
	"github.com/youruser/matchboard/internal/constants"
	"github.com/youruser/matchboard/internal/events"
	imagepkg "github.com/youruser/matchboard/internal/image"
	"github.com/youruser/matchboard/internal/matches"
	"github.com/youruser/matchboard/internal/render"
	"github.com/youruser/matchboard/internal/store"
)

// ErrUpcomingDisabled is returned by RefreshUpcoming when no upstream source
// is configured.
var ErrUpcomingDisabled = errors.New("upcoming match refresh is not configured")

// UpcomingSource lists matches starting soon.
type UpcomingSource interface {
	Enabled() bool
	Upcoming(ctx context.Context, now time.Time) ([]matches.Match, error)
}

type Handler struct {
	renderer *render.Renderer
	store    *store.MatchStore
	broker   *events.Broker
	upcoming UpcomingSource
	cfg      *config.Config
	logger   zerolog.Logger
}

func NewHandler(
	renderer *render.Renderer,
	st *store.MatchStore,
	broker *events.Broker,
	upcoming UpcomingSource,
	cfg *config.Config,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		renderer: renderer,
		store:    st,
		broker:   broker,
		upcoming: upcoming,
		cfg:      cfg,
		logger:   logger,
	}
}

// health
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": h.broker.Count()})
}

// listMatches returns the stored selection. team, tournament and q narrow the
// selected list; format=text returns it as a plain-text schedule.
func (h *Handler) listMatches(c *gin.Context) {
	sel, err := h.store.Selection(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	opt := matches.FilterOptions{
		Teams:       c.QueryArray("team"),
		Tournaments: c.QueryArray("tournament"),
		FreeWords:   c.Query("q"),
	}
	sel.Selected = matches.Filter(sel.Selected, opt)

	if c.Query("format") == "text" {
		c.String(http.StatusOK, matches.ExportText(c.DefaultQuery("title", h.cfg.DefaultTitle), sel.Selected))
		return
	}
	c.JSON(http.StatusOK, sel)
}

func (h *Handler) saveSelection(c *gin.Context) {
	sel, err := matches.DecodeSelection(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := h.store.ReplaceSelection(c.Request.Context(), sel); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to save selection")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	h.broker.Publish(events.NewMessage(events.TypeMatchesUpdated, sel))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) getCommands(c *gin.Context) {
	doc, err := h.store.Commands(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", doc)
}

// saveCommands stores the posted commands document as-is and broadcasts it.
func (h *Handler) saveCommands(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, constants.MaxCommandsBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if len(body) > constants.MaxCommandsBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "commands document too large"})
		return
	}
	doc := json.RawMessage(bytes.TrimSpace(body))
	if !json.Valid(doc) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "commands must be a JSON document"})
		return
	}
	if err := h.store.SaveCommands(c.Request.Context(), doc); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to save commands")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	h.broker.Publish(events.NewMessage(events.TypeCommandsUpdated, doc))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) listUpcoming(c *gin.Context) {
	ms, err := h.store.Upcoming(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"upcoming_matches": ms})
}

// RefreshUpcoming pulls the next matches from the upstream source, stores
// them and notifies subscribers.
func (h *Handler) RefreshUpcoming(ctx context.Context) (int, error) {
	if h.upcoming == nil || !h.upcoming.Enabled() {
		return 0, ErrUpcomingDisabled
	}
	ms, err := h.upcoming.Upcoming(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if err := h.store.ReplaceUpcoming(ctx, ms); err != nil {
		return 0, err
	}
	h.broker.Publish(events.NewMessage(events.TypeUpcomingUpdated, gin.H{"count": len(ms)}))
	return len(ms), nil
}

func (h *Handler) refreshUpcoming(c *gin.Context) {
	n, err := h.RefreshUpcoming(c.Request.Context())
	switch {
	case errors.Is(err, ErrUpcomingDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": err.Error()})
	case err != nil:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to refresh upcoming matches")
		c.JSON(http.StatusBadGateway, gin.H{"success": false})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "count": n})
	}
}

// streamEvents keeps the connection open and forwards broker messages as
// server-sent events until the client goes away.
func (h *Handler) streamEvents(c *gin.Context) {
	sub := h.broker.Subscribe()
	defer h.broker.Unsubscribe(sub.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("message", events.NewMessage(events.TypeConnected, gin.H{"client_id": sub.ID}))
	c.Writer.Flush()

	done := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("message", msg)
			return true
		case <-done:
			return false
		}
	})
}

type imageRequest struct {
	Matches json.RawMessage `json:"matches"`
	Title   string          `json:"title"`
	// nil means the configured default background
	Background *string `json:"background"`
	QRText     string  `json:"qr_text"`
	Format     string  `json:"format"`
	Quality    float64 `json:"quality"`
}

// scheduleImage renders the posted matches, or the stored selection when the
// body has none.
func (h *Handler) scheduleImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	format, err := imagepkg.ParseFormat(req.Format)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var ms []matches.Match
	if raw := bytes.TrimSpace(req.Matches); len(raw) > 0 && string(raw) != "null" {
		ms = matches.DecodeList(raw)
	} else if ms, err = h.storedMatches(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	background := h.cfg.DefaultBackground
	if req.Background != nil {
		background = *req.Background
	}
	h.writeImage(c, render.Request{
		Matches:    ms,
		Title:      h.title(req.Title),
		Background: background,
		QRText:     req.QRText,
	}, imagepkg.EncodeOptions{Format: format, Quality: req.Quality})
}

// scheduleImageFromStore renders the stored selection with options from the
// query string.
func (h *Handler) scheduleImageFromStore(c *gin.Context) {
	format, err := imagepkg.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	quality := 0.0
	if q := c.Query("quality"); q != "" {
		if quality, err = strconv.ParseFloat(q, 64); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quality"})
			return
		}
	}
	ms, err := h.storedMatches(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.writeImage(c, render.Request{
		Matches:    ms,
		Title:      h.title(c.Query("title")),
		Background: c.DefaultQuery("background", h.cfg.DefaultBackground),
		QRText:     c.Query("qr"),
	}, imagepkg.EncodeOptions{Format: format, Quality: quality})
}

func (h *Handler) storedMatches(ctx context.Context) ([]matches.Match, error) {
	sel, err := h.store.Selection(ctx)
	if err != nil {
		return nil, err
	}
	return sel.Selected, nil
}

func (h *Handler) title(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return h.cfg.DefaultTitle
}

func (h *Handler) writeImage(c *gin.Context, req render.Request, opts imagepkg.EncodeOptions) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), constants.RenderTimeout)
	defer cancel()

	res, err := h.renderer.Render(ctx, req)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("render failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	buf := new(bytes.Buffer)
	if err := res.Encode(buf, opts); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("X-Canvas-Width", strconv.Itoa(res.Plan.Width))
	c.Header("X-Canvas-Height", strconv.Itoa(res.Plan.Height))
	c.Header("X-Logos-Resolved", strconv.Itoa(res.LogosResolved))
	c.Data(http.StatusOK, imagepkg.ContentType(opts.Format), buf.Bytes())
}

// qr endpoint returns a PNG of a QR for "text" query param
func qrHandler(c *gin.Context) {
	text := c.Query("text")
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	size := 400
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 && v <= 2048 {
		size = v
	}
	b, err := imagepkg.GenerateQRPNG(text, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}
