package games

import (
	"fmt"
	"net/url"

	"github.com/smarlify/playful-hub/internal/domain"
)

// Status indicates whether a game is playable on the hub
type Status string

const (
	StatusPublished  Status = "published"
	StatusComingSoon Status = "coming-soon"
)

// ScoreFormat selects the per-game presentation rule for a score
type ScoreFormat string

const (
	ScoreFormatPlain ScoreFormat = "plain"
	ScoreFormatScore ScoreFormat = "score"
	ScoreFormatLevel ScoreFormat = "level"
	ScoreFormatLaps  ScoreFormat = "laps"
)

// Game describes one entry of the hub catalog. The game itself is hosted
// elsewhere and embedded as an opaque surface; URL is its location and the
// origin parsed from it is the trust anchor for incoming score events.
type Game struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"shortDescription"`
	Thumbnail        string      `json:"thumbnail"`
	URL              string      `json:"url"`
	GitHubURL        string      `json:"githubUrl,omitempty"`
	Status           Status      `json:"status"`
	Tech             []string    `json:"tech"`
	Features         []string    `json:"features"`
	ScoreFormat      ScoreFormat `json:"scoreFormat"`
	PublishedDate    string      `json:"publishedDate,omitempty"`
}

// FormatScore renders a leaderboard entry's result the way this game
// presents it. Space Shooter reports progress as a level, Traffic Run as
// completed laps; the rest show the raw score.
func (g *Game) FormatScore(entry domain.LeaderboardEntry) string {
	switch g.ScoreFormat {
	case ScoreFormatLevel:
		if entry.Level != nil {
			return fmt.Sprintf("Level %d", *entry.Level)
		}
		return fmt.Sprintf("Level %d", entry.Score)
	case ScoreFormatScore:
		return fmt.Sprintf("Score: %d", entry.Score)
	case ScoreFormatLaps:
		return fmt.Sprintf("Laps: %d", entry.Score)
	default:
		return fmt.Sprintf("%d", entry.Score)
	}
}

// Catalog is the set of games the hub lists
type Catalog struct {
	games []Game
	byID  map[string]*Game
}

// NewCatalog builds a catalog from the given games
func NewCatalog(games ...Game) *Catalog {
	c := &Catalog{
		games: games,
		byID:  make(map[string]*Game, len(games)),
	}
	for i := range c.games {
		c.byID[c.games[i].ID] = &c.games[i]
	}
	return c
}

// Default returns the hub's built-in catalog
func Default() *Catalog {
	return NewCatalog(
		Game{
			ID:               "crossy-road",
			Name:             "Crossy Road",
			Description:      "Jump, dodge, and survive in this endless runner. Navigate through obstacles, collect coins, and see how far you can go.",
			ShortDescription: "Endless runner with obstacles and coins",
			Thumbnail:        "/game-assets/crossy-road.png",
			URL:              "https://crossy-road-adeb791dac1a.herokuapp.com/",
			GitHubURL:        "https://github.com/smarlify/crossy-road-game",
			Status:           StatusPublished,
			Tech:             []string{"React Three Fiber", "Zustand", "TypeScript"},
			Features:         []string{"Endless Gameplay", "Obstacle Avoidance", "High Scores"},
			ScoreFormat:      ScoreFormatScore,
			PublishedDate:    "2024-06-01",
		},
		Game{
			ID:               "traffic-run",
			Name:             "Traffic Run",
			Description:      "Navigate through busy traffic, avoid collisions, and reach the finish line as fast as possible.",
			ShortDescription: "High-speed 2.5D racing through busy traffic",
			Thumbnail:        "/game-assets/traffic-run.png",
			URL:              "https://traffic-run-50a7914ff3f5.herokuapp.com/",
			GitHubURL:        "https://github.com/smarlify/traffic-run-game",
			Status:           StatusPublished,
			Tech:             []string{"Three.js", "TypeScript", "WebGL"},
			Features:         []string{"Obstacle Avoidance", "Multiple Levels", "High Scores"},
			ScoreFormat:      ScoreFormatLaps,
			PublishedDate:    "2024-07-01",
		},
		Game{
			ID:               "space-shooter",
			Name:             "Space Shooter",
			Description:      "Defend Earth from alien invaders in this classic 2D space shooter. Destroy enemies and survive wave after wave of attacks.",
			ShortDescription: "Classic 2D space shooter with WebGL graphics",
			Thumbnail:        "/game-assets/space-shooter.png",
			URL:              "https://space-shooter-2d-ab0c1ab2cfd8.herokuapp.com/",
			GitHubURL:        "https://github.com/smarlify/space-shooter",
			Status:           StatusPublished,
			Tech:             []string{"WebGL", "Vanilla JS", "Three.js"},
			Features:         []string{"2D Graphics", "Wave-based Gameplay", "Power-ups"},
			ScoreFormat:      ScoreFormatLevel,
			PublishedDate:    "2024-04-01",
		},
		Game{
			ID:               "crazy-vacuum-3d",
			Name:             "Crazy Vacuum 3D",
			Description:      "Coming soon! Navigate through challenging levels, collect debris, and master the art of cleaning in this 3D adventure.",
			ShortDescription: "3D vacuum cleaning adventure",
			Thumbnail:        "/game-assets/crazy-vacuum.png",
			URL:              "",
			Status:           StatusComingSoon,
			Tech:             []string{"Unity 3D", "C#"},
			Features:         []string{"3D Graphics", "Realistic Physics"},
			ScoreFormat:      ScoreFormatPlain,
		},
	)
}

// ByID returns the game with the given id
func (c *Catalog) ByID(id string) (*Game, error) {
	game, ok := c.byID[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

// All returns every game in catalog order
func (c *Catalog) All() []Game {
	return c.games
}

// Published returns the playable games
func (c *Catalog) Published() []Game {
	var out []Game
	for _, g := range c.games {
		if g.Status == StatusPublished {
			out = append(out, g)
		}
	}
	return out
}

// ComingSoon returns the announced but unplayable games
func (c *Catalog) ComingSoon() []Game {
	var out []Game
	for _, g := range c.games {
		if g.Status == StatusComingSoon {
			out = append(out, g)
		}
	}
	return out
}

// Origin returns the scheme://host origin of the game's embedded surface.
// Score events are only accepted from this origin. Coming-soon games have
// no surface and therefore no origin.
func (c *Catalog) Origin(id string) (string, error) {
	game, err := c.ByID(id)
	if err != nil {
		return "", err
	}
	if game.Status != StatusPublished || game.URL == "" {
		return "", domain.ErrGameNotPlayable
	}
	u, err := url.Parse(game.URL)
	if err != nil {
		return "", fmt.Errorf("parsing game url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("game url %q has no origin", game.URL)
	}
	return u.Scheme + "://" + u.Host, nil
}
