// Command gamesim simulates embedded game frames: it connects to the hub's
// WebSocket endpoint and relays GAME_OVER messages at a configurable rate,
// for smoke and load testing the score channel.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// relayMessage mirrors the host page's relay of a frame message: the
// declared origin plus the raw posted payload.
type relayMessage struct {
	Type    string          `json:"type"`
	GameID  string          `json:"game_id"`
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// gameOverPayload is what the embedded game posts on game over
type gameOverPayload struct {
	Type  string  `json:"type"`
	Score float64 `json:"score"`
	Level *int64  `json:"level,omitempty"`
}

func main() {
	// Command line flags
	serverURL := flag.String("server", "ws://localhost:8080/ws", "Hub WebSocket URL")
	gameID := flag.String("game", "crossy-road", "Game ID to post scores for")
	origin := flag.String("origin", "", "Declared message origin (defaults to the game's real origin)")
	eventsPerSecond := flag.Int("rate", 1, "GAME_OVER events per second")
	maxScore := flag.Int("max-score", 500, "Upper bound for random scores")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	declaredOrigin := *origin
	if declaredOrigin == "" {
		declaredOrigin = defaultOrigin(*gameID)
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  🎮 Playful Game Simulator")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Server:     %s\n", *serverURL)
	fmt.Printf("  Game:       %s\n", *gameID)
	fmt.Printf("  Origin:     %s\n", declaredOrigin)
	fmt.Printf("  Events/sec: %d\n", *eventsPerSecond)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Connect to the hub
	header := http.Header{}
	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, header)
	if err != nil {
		log.Fatalf("Failed to connect to hub: %v", err)
	}
	defer conn.Close()

	var sentCount, recvCount int64

	// Drain server messages (acks, leaderboard pushes, errors)
	go func() {
		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&recvCount, 1)
			log.Printf("hub: %s", message)
		}
	}()

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sendGameOver := func() {
		score := float64(rand.Intn(*maxScore) + 1)
		payload, err := json.Marshal(gameOverPayload{
			Type:  "GAME_OVER",
			Score: score,
		})
		if err != nil {
			log.Printf("Failed to marshal payload: %v", err)
			return
		}

		msg := relayMessage{
			Type:    "game_over",
			GameID:  *gameID,
			Origin:  declaredOrigin,
			Payload: payload,
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("Failed to send event: %v", err)
			return
		}
		atomic.AddInt64(&sentCount, 1)
	}

	interval := time.Second / time.Duration(*eventsPerSecond)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	for {
		select {
		case <-sigChan:
			fmt.Println("\n\nShutting down...")
			fmt.Printf("\n✓ Completed. Sent: %d, Received: %d\n",
				atomic.LoadInt64(&sentCount), atomic.LoadInt64(&recvCount))
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				fmt.Println("\n\nDuration reached, shutting down...")
				fmt.Printf("\n✓ Completed. Sent: %d, Received: %d\n",
					atomic.LoadInt64(&sentCount), atomic.LoadInt64(&recvCount))
				return
			}
			sendGameOver()

		case <-statsTicker.C:
			fmt.Printf("[%s] Sent: %d | Received: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&sentCount),
				atomic.LoadInt64(&recvCount),
			)
		}
	}
}

// defaultOrigin maps the built-in catalog games to their hosting origins
func defaultOrigin(gameID string) string {
	switch gameID {
	case "crossy-road":
		return "https://crossy-road-adeb791dac1a.herokuapp.com"
	case "traffic-run":
		return "https://traffic-run-50a7914ff3f5.herokuapp.com"
	case "space-shooter":
		return "https://space-shooter-2d-ab0c1ab2cfd8.herokuapp.com"
	default:
		return "http://localhost"
	}
}
