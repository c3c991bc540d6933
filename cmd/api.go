package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/desertthunder/listx/internal/services"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// searchHit is one scored catalog search result.
type searchHit struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Combined    int    `json:"combined"`
	TitleScore  int    `json:"title_score"`
	ArtistScore int    `json:"artist_score"`
}

// CatalogSearch searches the catalog and scores every result the way an import would.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}
	artist := cmd.String("artist")

	r.logger.Info("searching catalog", "query", query, "artist", artist)

	releases, err := r.catalog.Search(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	hits := make([]searchHit, 0, len(releases))
	for _, rel := range releases {
		s := tasks.Score(query, artist, rel)
		hits = append(hits, searchHit{
			ID:          rel.ReleaseID(),
			Title:       rel.Title(),
			Artist:      rel.ArtistText(),
			Combined:    s.Combined,
			TitleScore:  s.TitleScore,
			ArtistScore: s.ArtistScore,
		})
	}
	slices.SortStableFunc(hits, func(a, b searchHit) int { return b.Combined - a.Combined })

	if cmd.Bool("json") {
		return r.writeJSON(hits, true)
	}

	if len(hits) == 0 {
		return r.writePlain("No albums found for %q\n", query)
	}

	threshold := r.cfg().Import.Threshold
	if threshold <= 0 {
		threshold = tasks.DefaultThreshold
	}

	w := tabwriter.NewWriter(r.output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tTITLE\tARTIST\tID")
	for _, h := range hits {
		mark := " "
		if h.Combined >= threshold {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %3d\t%s\t%s\t%s\n", mark, h.Combined, shared.Truncate(h.Title, 48), shared.Truncate(h.Artist, 32), h.ID)
	}
	return w.Flush()
}

// CatalogGet makes a direct GET request to the proxy
func (r *Runner) CatalogGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: request path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, !cmd.Bool("json"))
}

// CatalogPost makes a direct POST request to the proxy
func (r *Runner) CatalogPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: request path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.api.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}
	if resp.IsJSON && !pretty {
		return r.writeJSON(resp.JSONData, false)
	}
	return r.writePlain("%s\n", resp.Pretty())
}
