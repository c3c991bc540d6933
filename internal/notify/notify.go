// Package notify relays import progress to a Discord channel through a webhook.
//
// Only milestones are posted: playlist creation, cadence reports, failed
// batches, the final summary and terminal failures. Per-candidate updates
// are dropped to stay inside Discord's webhook rate limits.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/listx/internal/formatter"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
)

// Embed colors.
const (
	colorBlue  = 0x3498DB
	colorGreen = 0x2ECC71
	colorAmber = 0xF39C12
	colorRed   = 0xE74C3C
)

// Notifier receives run milestones.
type Notifier interface {
	Notify(ctx context.Context, update tasks.ProgressUpdate) error
	Failure(ctx context.Context, source string, err error) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, tasks.ProgressUpdate) error { return nil }
func (Nop) Failure(context.Context, string, error) error       { return nil }

// webhookExecutor is the part of [discordgo.Session] used to post messages.
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts embeds to a Discord webhook.
type DiscordNotifier struct {
	exec     webhookExecutor
	id       string
	token    string
	username string
	preview  int
	logger   *log.Logger
}

// New returns a [DiscordNotifier] when the webhook is configured and [Nop] otherwise.
func New(cfg shared.DiscordConfig, preview int, logger *log.Logger) (Notifier, error) {
	if !cfg.Enabled() {
		return Nop{}, nil
	}
	return NewDiscordNotifier(cfg, preview, logger)
}

// NewDiscordNotifier creates a webhook-only Discord session; no gateway connection is opened.
func NewDiscordNotifier(cfg shared.DiscordConfig, preview int, logger *log.Logger) (*DiscordNotifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: discord webhook id and token are required", shared.ErrMissingConfig)
	}

	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return newDiscordNotifier(session, cfg, preview, logger), nil
}

func newDiscordNotifier(exec webhookExecutor, cfg shared.DiscordConfig, preview int, logger *log.Logger) *DiscordNotifier {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	username := cfg.Username
	if username == "" {
		username = "listx"
	}
	return &DiscordNotifier{
		exec:     exec,
		id:       cfg.WebhookID,
		token:    cfg.WebhookToken,
		username: username,
		preview:  preview,
		logger:   logger.With("component", "notify"),
	}
}

// Notify posts the embed for update, ignoring phases that are not milestones.
func (d *DiscordNotifier) Notify(ctx context.Context, update tasks.ProgressUpdate) error {
	embed := d.embedFor(update)
	if embed == nil {
		return nil
	}
	return d.send(ctx, embed)
}

// Failure posts a run that ended before processing any candidate.
func (d *DiscordNotifier) Failure(ctx context.Context, source string, err error) error {
	return d.send(ctx, &discordgo.MessageEmbed{
		Title:       "Import failed",
		Description: fmt.Sprintf("`%s`: %v", source, err),
		Color:       colorRed,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func (d *DiscordNotifier) send(ctx context.Context, embed *discordgo.MessageEmbed) error {
	params := &discordgo.WebhookParams{
		Username: d.username,
		Embeds:   []*discordgo.MessageEmbed{embed},
	}
	if _, err := d.exec.WebhookExecute(d.id, d.token, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to execute discord webhook: %w", err)
	}
	return nil
}

func (d *DiscordNotifier) embedFor(update tasks.ProgressUpdate) *discordgo.MessageEmbed {
	switch update.Phase {
	case tasks.CreatePlaylist:
		return &discordgo.MessageEmbed{Title: "Import started", Description: update.Message, Color: colorBlue}
	case tasks.ReportProgress:
		return &discordgo.MessageEmbed{Description: update.Message, Color: colorBlue}
	case tasks.AddBatch:
		return &discordgo.MessageEmbed{Description: update.Message, Color: colorAmber}
	case tasks.Complete:
		res, ok := update.Data.(*models.RunResult)
		if !ok {
			return &discordgo.MessageEmbed{Title: "Import complete", Description: update.Message, Color: colorGreen}
		}
		return d.summary(res)
	default:
		return nil
	}
}

func (d *DiscordNotifier) summary(res *models.RunResult) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     res.PlaylistTitle,
		URL:       res.PlaylistURL,
		Color:     colorGreen,
		Timestamp: res.CompletedAt.UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Tracks added", Value: fmt.Sprint(res.TotalTracksAdded), Inline: true},
			{Name: "Albums matched", Value: fmt.Sprintf("%d/%d", res.Matched, res.Candidates), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: res.Source},
	}

	if len(res.Unmatched) > 0 {
		n := d.preview
		if n <= 0 {
			n = formatter.DefaultUnmatchedPreview
		}
		lines := make([]string, 0, n)
		for _, c := range res.UnmatchedPreview(n) {
			lines = append(lines, "• "+shared.Truncate(c.String(), 80))
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  fmt.Sprintf("Not matched (%d)", len(res.Unmatched)),
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}

// Relay drains in until it closes, handing each update to next (when set) and
// posting milestones to n. Notification errors are logged, never returned.
func Relay(ctx context.Context, n Notifier, in <-chan tasks.ProgressUpdate, next func(tasks.ProgressUpdate), logger *log.Logger) {
	for update := range in {
		if next != nil {
			next(update)
		}
		if err := n.Notify(ctx, update); err != nil && logger != nil {
			logger.Warn("failed to send notification", "phase", update.Phase, "error", err)
		}
	}
}
