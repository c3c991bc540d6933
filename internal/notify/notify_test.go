package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/desertthunder/listx/internal/models"
	"github.com/desertthunder/listx/internal/shared"
	"github.com/desertthunder/listx/internal/tasks"
)

// mockExecutor is a test double for webhookExecutor.
type mockExecutor struct {
	mu   sync.Mutex
	sent []*discordgo.WebhookParams
	ids  []string
	err  error
}

func (m *mockExecutor) WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, data)
	m.ids = append(m.ids, webhookID+"/"+token)
	return &discordgo.Message{}, nil
}

func newTestNotifier(exec *mockExecutor) *DiscordNotifier {
	cfg := shared.DiscordConfig{WebhookID: "123", WebhookToken: "secret"}
	return newDiscordNotifier(exec, cfg, 2, shared.NewLogger(io.Discard))
}

func TestNew(t *testing.T) {
	t.Run("disabled returns Nop", func(t *testing.T) {
		n, err := New(shared.DiscordConfig{}, 0, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := n.(Nop); !ok {
			t.Errorf("expected Nop notifier, got %T", n)
		}
	})

	t.Run("configured returns discord notifier", func(t *testing.T) {
		n, err := New(shared.DiscordConfig{WebhookID: "1", WebhookToken: "t"}, 0, shared.NewLogger(io.Discard))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		d, ok := n.(*DiscordNotifier)
		if !ok {
			t.Fatalf("expected DiscordNotifier, got %T", n)
		}
		if d.username != "listx" {
			t.Errorf("expected default username, got %s", d.username)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		if _, err := NewDiscordNotifier(shared.DiscordConfig{WebhookID: "1"}, 0, nil); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestDiscordNotifier(t *testing.T) {
	ctx := context.Background()

	t.Run("milestones only", func(t *testing.T) {
		exec := &mockExecutor{}
		n := newTestNotifier(exec)

		updates := []tasks.ProgressUpdate{
			{Phase: tasks.ExtractLines, Message: "extracted"},
			{Phase: tasks.ResolveCandidates, Message: "[1/2] ✓ A"},
			{Phase: tasks.CreatePlaylist, Message: "Created playlist"},
			{Phase: tasks.ReportProgress, Message: "Processed 5/10 albums"},
			{Phase: tasks.AddBatch, Message: "Failed adding 50 tracks"},
		}
		for _, u := range updates {
			if err := n.Notify(ctx, u); err != nil {
				t.Fatalf("Notify failed: %v", err)
			}
		}

		if len(exec.sent) != 3 {
			t.Fatalf("expected 3 posts, got %d", len(exec.sent))
		}
		if exec.ids[0] != "123/secret" || exec.sent[0].Username != "listx" {
			t.Errorf("unexpected webhook call %s %+v", exec.ids[0], exec.sent[0])
		}
		if exec.sent[2].Embeds[0].Color != colorAmber {
			t.Errorf("expected batch failure to be amber")
		}
	})

	t.Run("summary embed", func(t *testing.T) {
		exec := &mockExecutor{}
		n := newTestNotifier(exec)

		res := &models.RunResult{
			Source:           "albums.txt",
			PlaylistTitle:    "Imported from PDF",
			PlaylistURL:      "https://tidal.com/playlist/pl-1",
			Candidates:       5,
			Matched:          2,
			TotalTracksAdded: 21,
			Unmatched:        []models.Candidate{{Title: "A"}, {Title: "B", Artist: "X"}, {Title: "C"}},
			CompletedAt:      time.Now(),
		}
		if err := n.Notify(ctx, tasks.ProgressUpdate{Phase: tasks.Complete, Data: res}); err != nil {
			t.Fatalf("Notify failed: %v", err)
		}

		embed := exec.sent[0].Embeds[0]
		if embed.URL != res.PlaylistURL || embed.Title != res.PlaylistTitle {
			t.Errorf("unexpected embed header %+v", embed)
		}
		if embed.Fields[0].Value != "21" || embed.Fields[1].Value != "2/5" {
			t.Errorf("unexpected counters %+v %+v", embed.Fields[0], embed.Fields[1])
		}
		unmatched := embed.Fields[2]
		if unmatched.Name != "Not matched (3)" || strings.Count(unmatched.Value, "•") != 2 {
			t.Errorf("expected preview of 2 unmatched, got %+v", unmatched)
		}
	})

	t.Run("failure", func(t *testing.T) {
		exec := &mockExecutor{}
		if err := newTestNotifier(exec).Failure(ctx, "albums.txt", shared.ErrNothingToImport); err != nil {
			t.Fatalf("Failure failed: %v", err)
		}
		embed := exec.sent[0].Embeds[0]
		if embed.Color != colorRed || !strings.Contains(embed.Description, "albums.txt") {
			t.Errorf("unexpected failure embed %+v", embed)
		}
	})

	t.Run("webhook error", func(t *testing.T) {
		exec := &mockExecutor{err: errors.New("429")}
		err := newTestNotifier(exec).Notify(ctx, tasks.ProgressUpdate{Phase: tasks.CreatePlaylist})
		if err == nil || !strings.Contains(err.Error(), "429") {
			t.Errorf("expected webhook error, got %v", err)
		}
	})
}

func TestRelay(t *testing.T) {
	exec := &mockExecutor{err: errors.New("down")}
	n := newTestNotifier(exec)

	in := make(chan tasks.ProgressUpdate, 3)
	in <- tasks.ProgressUpdate{Phase: tasks.ExtractLines}
	in <- tasks.ProgressUpdate{Phase: tasks.ReportProgress}
	in <- tasks.ProgressUpdate{Phase: tasks.Complete}
	close(in)

	var seen []tasks.Phase
	Relay(context.Background(), n, in, func(u tasks.ProgressUpdate) { seen = append(seen, u.Phase) }, shared.NewLogger(io.Discard))

	if len(seen) != 3 {
		t.Errorf("expected every update forwarded despite webhook errors, got %v", seen)
	}
}
