package tasks

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/fuzzy"
	"github.com/desertthunder/listx/internal/models"
)

const (
	DefaultThreshold   = 70
	DefaultMaxResults  = 8
	DefaultCallTimeout = 20 * time.Second

	titleWeight  = 0.7
	artistWeight = 0.3
)

// Searcher is the catalog search capability the resolver needs.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Release, error)
}

// MatchCache stores accepted candidate resolutions across runs.
//
// Implemented by repositories.MatchRepository. Errors are logged and ignored.
type MatchCache interface {
	Lookup(ctx context.Context, key string) (*models.ReleaseMatch, error)
	Store(ctx context.Context, match *models.ReleaseMatch) error
}

// ResolverOptions configures matching.
type ResolverOptions struct {
	Threshold   int
	MaxResults  int
	CallTimeout time.Duration
	Cache       MatchCache
}

func (o ResolverOptions) withDefaults() ResolverOptions {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}

// Resolver turns candidates into catalog releases using fuzzy scoring.
//
// A Resolver memoises search results and is meant to live for a single run.
type Resolver struct {
	catalog Searcher
	opts    ResolverOptions
	logger  *log.Logger

	mu   sync.Mutex
	memo map[string][]models.Release
}

// NewResolver creates a run-scoped resolver.
func NewResolver(catalog Searcher, opts ResolverOptions, logger *log.Logger) *Resolver {
	return &Resolver{
		catalog: catalog,
		opts:    opts.withDefaults(),
		logger:  logger,
		memo:    make(map[string][]models.Release),
	}
}

// BuildQueries returns the search queries for a candidate in priority order,
// skipping empty and duplicate ones.
func BuildQueries(title, artist string) []string {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)

	var raw []string
	if title != "" && artist != "" {
		raw = append(raw, title+" "+artist, title+" - "+artist)
	}
	raw = append(raw, title)

	seen := make(map[string]bool, len(raw))
	queries := make([]string, 0, len(raw))
	for _, q := range raw {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	return queries
}

// Score rates one release against (title, artist).
func Score(title, artist string, rel models.Release) models.ScoredRelease {
	s := models.ScoredRelease{Release: rel}
	if strings.TrimSpace(title) != "" {
		s.TitleScore = fuzzy.TokenSetRatio(title, rel.Title())
	}
	if strings.TrimSpace(artist) != "" && strings.TrimSpace(rel.ArtistText()) != "" {
		s.ArtistScore = fuzzy.TokenSetRatio(artist, rel.ArtistText())
	}
	s.Combined = int(math.Round(titleWeight*float64(s.TitleScore) + artistWeight*float64(s.ArtistScore)))
	return s
}

// Best returns the highest ranked release; the earliest wins exact ties.
func Best(scored []models.ScoredRelease) (models.ScoredRelease, bool) {
	if len(scored) == 0 {
		return models.ScoredRelease{}, false
	}
	best := scored[0]
	for _, s := range scored[1:] {
		if best.Less(s) {
			best = s
		}
	}
	return best, true
}

// Resolve searches every query for (title, artist) and returns the best
// release when its combined score reaches the threshold.
func (r *Resolver) Resolve(ctx context.Context, title, artist string) (*models.ScoredRelease, bool) {
	queries := BuildQueries(title, artist)
	if len(queries) == 0 {
		return nil, false
	}

	var scored []models.ScoredRelease
	for _, results := range r.searchAll(ctx, queries) {
		for _, rel := range results {
			if rel == nil || strings.TrimSpace(rel.Title()) == "" {
				continue
			}
			scored = append(scored, Score(title, artist, rel))
		}
	}

	best, ok := Best(scored)
	if !ok {
		return nil, false
	}

	r.logger.Debug("best match",
		"title", title, "artist", artist,
		"release", best.Release.Title(),
		"combined", best.Combined, "title_score", best.TitleScore, "artist_score", best.ArtistScore)

	if best.Combined < r.opts.Threshold {
		return nil, false
	}
	return &best, true
}

// ResolveCandidate resolves c, retrying once without the artist when the first
// pass fails. Accepted matches are read from and written to the cache.
func (r *Resolver) ResolveCandidate(ctx context.Context, c models.Candidate) (*models.ScoredRelease, bool) {
	if hit, ok := r.lookup(ctx, c); ok {
		return hit, true
	}

	best, ok := r.Resolve(ctx, c.Title, c.Artist)
	if !ok && c.HasArtist() {
		best, ok = r.Resolve(ctx, c.Title, "")
	}
	if ok {
		r.store(ctx, c, best)
	}
	return best, ok
}

// searchAll runs the queries concurrently and returns their results in query order.
func (r *Resolver) searchAll(ctx context.Context, queries []string) [][]models.Release {
	results := make([][]models.Release, len(queries))

	var wg sync.WaitGroup
	for i, q := range queries {
		if cached, ok := r.memoized(q); ok {
			results[i] = cached
			continue
		}

		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			results[i] = r.search(ctx, q)
		}(i, q)
	}
	wg.Wait()
	return results
}

func (r *Resolver) search(ctx context.Context, query string) []models.Release {
	callCtx, cancel := context.WithTimeout(ctx, r.opts.CallTimeout)
	defer cancel()

	releases, err := r.catalog.Search(callCtx, query, r.opts.MaxResults)
	if err != nil {
		// not memoized: the artist-cleared retry re-sends a failed title query
		r.logger.Warn("catalog search failed", "query", query, "error", err)
		return nil
	}
	if len(releases) > r.opts.MaxResults {
		releases = releases[:r.opts.MaxResults]
	}

	r.mu.Lock()
	r.memo[query] = releases
	r.mu.Unlock()
	return releases
}

func (r *Resolver) memoized(query string) ([]models.Release, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, ok := r.memo[query]
	return rel, ok
}

func (r *Resolver) lookup(ctx context.Context, c models.Candidate) (*models.ScoredRelease, bool) {
	if r.opts.Cache == nil {
		return nil, false
	}
	m, err := r.opts.Cache.Lookup(ctx, c.Key())
	if err != nil {
		r.logger.Warn("match cache lookup failed", "candidate", c.String(), "error", err)
		return nil, false
	}
	if m == nil || m.Score < r.opts.Threshold {
		return nil, false
	}
	return &models.ScoredRelease{Combined: m.Score, Release: m.Release()}, true
}

func (r *Resolver) store(ctx context.Context, c models.Candidate, best *models.ScoredRelease) {
	if r.opts.Cache == nil {
		return
	}
	m := &models.ReleaseMatch{
		CandidateKey:  c.Key(),
		ReleaseID:     best.Release.ReleaseID(),
		ReleaseTitle:  best.Release.Title(),
		ReleaseArtist: best.Release.ArtistText(),
		Score:         best.Combined,
	}
	if err := r.opts.Cache.Store(ctx, m); err != nil {
		r.logger.Warn("match cache store failed", "candidate", c.String(), "error", err)
	}
}
