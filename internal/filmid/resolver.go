// Package filmid resolves cinema listings to canonical film identities using
// TMDB search plus text and image similarity scoring.
package filmid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cinescrapers/internal/filmid/tmdb"
	"cinescrapers/internal/logging"
	"cinescrapers/internal/showtime"
	"cinescrapers/internal/titlenorm"
)

// ImageSource fetches candidate artwork by its API-relative path.
type ImageSource interface {
	FetchImage(ctx context.Context, imagePath string) ([]byte, error)
}

// Embedder produces image embeddings for similarity comparison.
type Embedder interface {
	EmbedImage(ctx context.Context, image []byte) ([]float64, error)
}

// Match is the outcome of resolving one listing.
type Match struct {
	TMDBID    int64
	Matched   bool
	Score     float64
	Title     string
	FromCache bool
}

// Resolver matches listings against the TMDB catalogue. Image scoring is
// optional: without an embedder the image component simply contributes
// nothing, and matches rest on title and overview evidence.
type Resolver struct {
	searcher tmdb.Searcher
	cache    *MatchCache
	scorer   *Scorer
	logger   *slog.Logger

	images       ImageSource
	embedder     Embedder
	thumbnailDir string
	imageDir     string
}

// ResolverOption customizes resolver construction.
type ResolverOption func(*Resolver)

// WithImageScoring enables the image similarity component. Listing thumbnails
// are read from thumbnailDir; candidate artwork is fetched from source and
// cached under imageDir.
func WithImageScoring(embedder Embedder, source ImageSource, thumbnailDir, imageDir string) ResolverOption {
	return func(r *Resolver) {
		r.embedder = embedder
		r.images = source
		r.thumbnailDir = thumbnailDir
		r.imageDir = imageDir
	}
}

// WithScorer overrides the default scorer.
func WithScorer(scorer *Scorer) ResolverOption {
	return func(r *Resolver) {
		r.scorer = scorer
	}
}

// NewResolver creates a resolver backed by the given searcher and cache.
func NewResolver(searcher tmdb.Searcher, cache *MatchCache, logger *slog.Logger, opts ...ResolverOption) (*Resolver, error) {
	if searcher == nil {
		return nil, errors.New("searcher required")
	}
	if cache == nil {
		return nil, errors.New("match cache required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	r := &Resolver{
		searcher: searcher,
		cache:    cache,
		scorer:   NewScorer(),
		logger:   logging.NewComponentLogger(logger, "filmid"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve finds the best film identity for one listing. Results, including
// "no match", are cached by content; transport failures are returned to the
// caller and never cached, so the listing is retried on the next run.
func (r *Resolver) Resolve(ctx context.Context, rec showtime.Canonical) (Match, error) {
	key := CacheKey(rec.NormTitle, rec.Description, rec.Thumbnail)
	if entry, found := r.cache.Lookup(key); found {
		return Match{
			TMDBID:    entry.TMDBID,
			Matched:   entry.Matched,
			Score:     entry.Score,
			Title:     entry.Title,
			FromCache: true,
		}, nil
	}

	results, err := r.searcher.SearchMovieAllPages(ctx, rec.NormTitle)
	if err != nil {
		return Match{}, fmt.Errorf("search %q: %w", rec.NormTitle, err)
	}

	candidates := exactTitleMatches(results, rec.NormTitle)
	if len(candidates) == 0 {
		r.logger.Debug("no exact title match",
			logging.String("norm_title", rec.NormTitle),
			logging.Int("search_results", len(results)))
		return r.cacheOutcome(key, Match{})
	}

	thumbVec, err := r.thumbnailEmbedding(ctx, rec.Thumbnail)
	if err != nil {
		return Match{}, err
	}

	best := Match{}
	for _, candidate := range candidates {
		score, err := r.scoreCandidate(ctx, rec, candidate, thumbVec)
		if err != nil {
			return Match{}, err
		}
		// Strict comparison keeps the earliest of tied candidates, which
		// follows TMDB's own popularity ordering.
		if !best.Matched || score > best.Score {
			best = Match{
				TMDBID:  candidate.ID,
				Matched: true,
				Score:   score,
				Title:   candidate.Title,
			}
		}
	}

	r.logger.Debug("resolved listing",
		logging.String("norm_title", rec.NormTitle),
		logging.Int64("tmdb_id", best.TMDBID),
		logging.String("matched_title", best.Title),
		logging.Float64("score", best.Score),
		logging.Int("candidates", len(candidates)))

	return r.cacheOutcome(key, best)
}

func (r *Resolver) cacheOutcome(key string, match Match) (Match, error) {
	entry := Entry{
		Key:       key,
		TMDBID:    match.TMDBID,
		Matched:   match.Matched,
		Title:     match.Title,
		Score:     match.Score,
		CheckedAt: time.Now(),
	}
	if err := r.cache.Store(entry); err != nil {
		return Match{}, fmt.Errorf("cache outcome: %w", err)
	}
	return match, nil
}

// exactTitleMatches filters search results down to those whose normalized
// title equals the listing's. Search is fuzzy; identity is not.
func exactTitleMatches(results []tmdb.Result, normTitle string) []tmdb.Result {
	matched := make([]tmdb.Result, 0, len(results))
	for _, result := range results {
		if strings.TrimSpace(result.Title) == "" {
			continue
		}
		normalized, err := titlenorm.Normalize(result.Title)
		if err != nil {
			continue
		}
		if normalized == normTitle {
			matched = append(matched, result)
		}
	}
	return matched
}

func (r *Resolver) scoreCandidate(ctx context.Context, rec showtime.Canonical, candidate tmdb.Result, thumbVec []float64) (float64, error) {
	overviewSim := OverviewSimilarity(rec.Description, candidate.Overview)

	imageSim := 0.0
	if len(thumbVec) > 0 {
		var artwork [][]float64
		for _, imagePath := range []string{candidate.PosterPath, candidate.BackdropPath} {
			if imagePath == "" {
				continue
			}
			vec, err := r.artworkEmbedding(ctx, imagePath)
			if err != nil {
				return 0, err
			}
			artwork = append(artwork, vec)
		}
		imageSim = ImageSimilarity(thumbVec, artwork...)
	}

	return r.scorer.Score(overviewSim, imageSim, candidate.ReleaseYear()), nil
}

// thumbnailEmbedding embeds the listing's stored thumbnail. A missing file or
// a failed embedding is logged and treated as absent evidence; only context
// cancellation aborts the resolution.
func (r *Resolver) thumbnailEmbedding(ctx context.Context, thumbnail string) ([]float64, error) {
	if r.embedder == nil || thumbnail == "" {
		return nil, nil
	}

	path := filepath.Join(r.thumbnailDir, thumbnail)
	data, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("thumbnail unavailable for image scoring",
			logging.String("path", path),
			logging.Error(err))
		return nil, nil
	}

	vec, err := r.embedder.EmbedImage(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("thumbnail embedding failed",
			logging.String("thumbnail", thumbnail),
			logging.Error(err))
		return nil, nil
	}
	return vec, nil
}

// artworkEmbedding fetches candidate artwork, caching the raw bytes on disk
// keyed by the artwork filename, and embeds it. Fetch or embed errors
// propagate so transient API trouble is never folded into a low score.
func (r *Resolver) artworkEmbedding(ctx context.Context, imagePath string) ([]float64, error) {
	data, err := r.artworkBytes(ctx, imagePath)
	if err != nil {
		return nil, fmt.Errorf("fetch artwork %s: %w", imagePath, err)
	}

	vec, err := r.embedder.EmbedImage(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("embed artwork %s: %w", imagePath, err)
	}
	return vec, nil
}

func (r *Resolver) artworkBytes(ctx context.Context, imagePath string) ([]byte, error) {
	var cachePath string
	if r.imageDir != "" {
		cachePath = filepath.Join(r.imageDir, filepath.Base(imagePath))
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	data, err := r.images.FetchImage(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	if cachePath != "" {
		if err := os.MkdirAll(r.imageDir, 0o755); err == nil {
			if err := os.WriteFile(cachePath, data, 0o644); err != nil {
				r.logger.Warn("failed to cache artwork",
					logging.String("path", cachePath),
					logging.Error(err))
			}
		}
	}
	return data, nil
}
