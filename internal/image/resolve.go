package imagepkg

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// LogoCache maps an original (pre-rewrite) logo URL to its decoded image.
// A missing key means the logo could not be resolved.
type LogoCache map[string]image.Image

// Resolver fetches and decodes team logos.
type Resolver struct {
	fetcher  Fetcher
	rewriter Rewriter
	memo     *Memo
	logger   zerolog.Logger
}

// NewResolver builds a Resolver. memo may be nil.
func NewResolver(fetcher Fetcher, rewriter Rewriter, memo *Memo, logger zerolog.Logger) *Resolver {
	return &Resolver{fetcher: fetcher, rewriter: rewriter, memo: memo, logger: logger}
}

// Unique drops empty and repeated URLs, keeping first-seen order.
func Unique(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ResolveLogos fetches every unique URL concurrently and returns the ones
// that decoded. Failures are logged and left out; the batch never fails.
func (r *Resolver) ResolveLogos(ctx context.Context, urls []string) LogoCache {
	unique := Unique(urls)
	cache := make(LogoCache, len(unique))
	if len(unique) == 0 {
		return cache
	}

	start := time.Now()
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, u := range unique {
		g.Go(func() error {
			img, err := r.Load(ctx, u)
			if err != nil {
				r.logger.Warn().Err(err).Str("url", truncateURL(u)).Msg("failed to load logo")
				return nil
			}
			mu.Lock()
			cache[u] = img
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Debug().
		Int("requested", len(unique)).
		Int("resolved", len(cache)).
		Dur("took", time.Since(start)).
		Msg("logos resolved")
	return cache
}

// Load fetches and decodes a single image, going through the relay rewrite
// and the memo. A panic in a decoder is reported as an error.
func (r *Resolver) Load(ctx context.Context, src string) (img image.Image, err error) {
	if cached, ok := r.memo.Get(src); ok {
		return cached, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			img, err = nil, fmt.Errorf("decode panic: %v", rec)
		}
	}()

	b, err := r.fetcher.Fetch(ctx, r.rewriter.Rewrite(src))
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	img, err = Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	r.memo.Put(src, img)
	return img, nil
}

func truncateURL(u string) string {
	if len(u) > 60 {
		return u[:60] + "..."
	}
	return u
}
