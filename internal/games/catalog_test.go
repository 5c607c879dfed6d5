package games

import (
	"errors"
	"testing"

	"github.com/smarlify/playful-hub/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	if got := len(c.All()); got != 4 {
		t.Fatalf("expected 4 games, got %d", got)
	}
	if got := len(c.Published()); got != 3 {
		t.Errorf("expected 3 published games, got %d", got)
	}
	if got := len(c.ComingSoon()); got != 1 {
		t.Errorf("expected 1 coming-soon game, got %d", got)
	}

	game, err := c.ByID("crossy-road")
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if game.Name != "Crossy Road" {
		t.Errorf("expected Crossy Road, got %q", game.Name)
	}

	if _, err := c.ByID("no-such-game"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
}

func TestOrigin(t *testing.T) {
	c := Default()

	origin, err := c.Origin("crossy-road")
	if err != nil {
		t.Fatalf("Origin failed: %v", err)
	}
	// Origin is scheme://host, without the URL's trailing slash
	if origin != "https://crossy-road-adeb791dac1a.herokuapp.com" {
		t.Errorf("unexpected origin %q", origin)
	}

	if _, err := c.Origin("crazy-vacuum-3d"); !errors.Is(err, domain.ErrGameNotPlayable) {
		t.Errorf("expected ErrGameNotPlayable for a coming-soon game, got %v", err)
	}
	if _, err := c.Origin("no-such-game"); !errors.Is(err, domain.ErrGameNotFound) {
		t.Errorf("expected ErrGameNotFound, got %v", err)
	}
}

func TestOriginRejectsRelativeURL(t *testing.T) {
	c := NewCatalog(Game{
		ID:     "local",
		Name:   "Local",
		URL:    "/games/local",
		Status: StatusPublished,
	})

	if _, err := c.Origin("local"); err == nil {
		t.Error("a URL without scheme and host has no origin")
	}
}

func TestFormatScore(t *testing.T) {
	level := int64(9)

	tests := []struct {
		name   string
		format ScoreFormat
		entry  domain.LeaderboardEntry
		want   string
	}{
		{"score", ScoreFormatScore, domain.LeaderboardEntry{Score: 250}, "Score: 250"},
		{"laps", ScoreFormatLaps, domain.LeaderboardEntry{Score: 12}, "Laps: 12"},
		{"level", ScoreFormatLevel, domain.LeaderboardEntry{Score: 800, Level: &level}, "Level 9"},
		{"level without level field", ScoreFormatLevel, domain.LeaderboardEntry{Score: 3}, "Level 3"},
		{"plain", ScoreFormatPlain, domain.LeaderboardEntry{Score: 77}, "77"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{ScoreFormat: tt.format}
			if got := g.FormatScore(tt.entry); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
