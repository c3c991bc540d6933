// package formatter renders import runs, candidates and history as plain text, Markdown or CSV
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
)

// DefaultUnmatchedPreview is how many unmatched candidates a summary lists.
const DefaultUnmatchedPreview = 6

// Format selects a report encoding.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
)

// ParseFormat maps a user supplied name onto a [Format].
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (text, markdown, csv)", shared.ErrInvalidFlag, s)
	}
}

// Render encodes res in format. preview caps the unmatched list for text and
// Markdown; CSV always lists every unmatched candidate.
func Render(res *models.RunResult, format Format, preview int) ([]byte, error) {
	switch format {
	case Text, "":
		return RunToText(res, preview), nil
	case Markdown:
		return RunToMarkdown(res, preview), nil
	case CSV:
		return RunToCSV(res)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// RunToText renders the end-of-run summary.
func RunToText(res *models.RunResult, preview int) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Done. Added %d tracks.\n", res.TotalTracksAdded)
	if res.PlaylistURL != "" {
		fmt.Fprintf(&buf, "Playlist URL: %s\n", res.PlaylistURL)
	}
	fmt.Fprintf(&buf, "Albums matched: %d/%d\n", res.Matched, res.Candidates)
	if res.FailedBatches > 0 {
		fmt.Fprintf(&buf, "Failed batches: %d\n", res.FailedBatches)
	}
	if d := res.Duration(); d > 0 {
		fmt.Fprintf(&buf, "Elapsed: %s\n", d.Round(time.Second))
	}

	if len(res.Unmatched) > 0 {
		fmt.Fprintf(&buf, "\nAlbums not matched (%d):\n", len(res.Unmatched))
		for _, c := range res.UnmatchedPreview(previewSize(preview)) {
			fmt.Fprintf(&buf, "- %s\n", c)
		}
		if rest := len(res.Unmatched) - previewSize(preview); rest > 0 {
			fmt.Fprintf(&buf, "... and %d more\n", rest)
		}
	}

	return buf.Bytes()
}

// RunToMarkdown renders the run summary as a Markdown document.
func RunToMarkdown(res *models.RunResult, preview int) []byte {
	var buf bytes.Buffer

	title := res.PlaylistTitle
	if title == "" {
		title = "Import"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)

	if res.PlaylistURL != "" {
		fmt.Fprintf(&buf, "**Playlist**: [%s](%s)\n", res.PlaylistID, res.PlaylistURL)
	}
	fmt.Fprintf(&buf, "**Source**: %s\n", res.Source)
	fmt.Fprintf(&buf, "**Tracks added**: %d\n", res.TotalTracksAdded)
	fmt.Fprintf(&buf, "**Albums matched**: %d/%d\n", res.Matched, res.Candidates)
	if res.FailedBatches > 0 {
		fmt.Fprintf(&buf, "**Failed batches**: %d\n", res.FailedBatches)
	}

	if len(res.Unmatched) > 0 {
		fmt.Fprintf(&buf, "\n## Not matched (%d)\n\n", len(res.Unmatched))
		for i, c := range res.UnmatchedPreview(previewSize(preview)) {
			if c.HasArtist() {
				fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, c.Title, c.Artist)
			} else {
				fmt.Fprintf(&buf, "%d. %s\n", i+1, c.Title)
			}
		}
	}

	return buf.Bytes()
}

// RunToCSV lists the unmatched candidates with columns: Position, Title, Artist
func RunToCSV(res *models.RunResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, c := range res.Unmatched {
		if err := writer.Write([]string{strconv.Itoa(i + 1), c.Title, c.Artist}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// CandidatesToText lists at most n candidates, one per line. A negative n lists all.
func CandidatesToText(candidates []models.Candidate, n int) []byte {
	var buf bytes.Buffer

	shown := candidates
	if n >= 0 && len(shown) > n {
		shown = shown[:n]
	}

	fmt.Fprintf(&buf, "I found %d candidate album lines", len(candidates))
	if len(shown) < len(candidates) {
		fmt.Fprintf(&buf, " (showing first %d)", len(shown))
	}
	buf.WriteString(":\n")
	for _, c := range shown {
		fmt.Fprintf(&buf, "- %s\n", c)
	}
	return buf.Bytes()
}

// HistoryToText renders runs as an aligned table.
func HistoryToText(runs []*models.ImportRun) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No imports yet.\n")
		return buf.Bytes()
	}

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tSTATUS\tSOURCE\tMATCHED\tADDED\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			r.Seq,
			r.RunID,
			r.Status,
			shared.Truncate(r.Source, 32),
			r.Matched, r.Candidates,
			r.TracksAdded,
			r.StartedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	return buf.Bytes()
}

// WriteReport renders res in format and writes it to path.
//
// Defaults to {run id}_report.{ext} as the filename.
func WriteReport(res *models.RunResult, format Format, preview int, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_report.%s", res.RunID, extension(format))
	}

	data, err := Render(res, format, preview)
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func extension(format Format) string {
	switch format {
	case Markdown:
		return "md"
	case CSV:
		return "csv"
	default:
		return "txt"
	}
}

func previewSize(n int) int {
	if n <= 0 {
		return DefaultUnmatchedPreview
	}
	return n
}
