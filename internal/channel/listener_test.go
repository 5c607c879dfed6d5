package channel

import (
	"io"
	"log/slog"
	"testing"

	"github.com/smarlify/playful-hub/internal/domain"
)

const gameOrigin = "https://crossy-road-adeb791dac1a.herokuapp.com"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReceiveValidGameOver(t *testing.T) {
	var got []domain.ScoreEvent
	l := NewListener(gameOrigin, func(event domain.ScoreEvent) {
		got = append(got, event)
	}, testLogger())

	l.Receive(gameOrigin, []byte(`{"type":"GAME_OVER","score":42}`))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Score != 42 {
		t.Errorf("expected score 42, got %d", got[0].Score)
	}
	if got[0].Level != nil {
		t.Errorf("expected no level, got %d", *got[0].Level)
	}
}

func TestReceiveCarriesLevel(t *testing.T) {
	var got []domain.ScoreEvent
	l := NewListener(gameOrigin, func(event domain.ScoreEvent) {
		got = append(got, event)
	}, testLogger())

	l.Receive(gameOrigin, []byte(`{"type":"GAME_OVER","score":120,"level":7}`))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Level == nil || *got[0].Level != 7 {
		t.Errorf("expected level 7, got %v", got[0].Level)
	}
}

func TestReceiveTruncatesFractionalScore(t *testing.T) {
	var got []domain.ScoreEvent
	l := NewListener(gameOrigin, func(event domain.ScoreEvent) {
		got = append(got, event)
	}, testLogger())

	l.Receive(gameOrigin, []byte(`{"type":"GAME_OVER","score":99.9}`))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Score != 99 {
		t.Errorf("expected truncated score 99, got %d", got[0].Score)
	}
}

func TestReceiveDropsInvalidMessages(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		payload string
	}{
		{"wrong origin", "https://evil.example.com", `{"type":"GAME_OVER","score":42}`},
		{"empty origin", "", `{"type":"GAME_OVER","score":42}`},
		{"malformed json", gameOrigin, `{"type":"GAME_OVER"`},
		{"not json at all", gameOrigin, `hello`},
		{"other message type", gameOrigin, `{"type":"RESIZE","score":42}`},
		{"missing type", gameOrigin, `{"score":42}`},
		{"missing score", gameOrigin, `{"type":"GAME_OVER"}`},
		{"string score", gameOrigin, `{"type":"GAME_OVER","score":"42"}`},
		{"negative score", gameOrigin, `{"type":"GAME_OVER","score":-5}`},
		{"null score", gameOrigin, `{"type":"GAME_OVER","score":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			l := NewListener(gameOrigin, func(domain.ScoreEvent) {
				called = true
			}, testLogger())

			l.Receive(tt.origin, []byte(tt.payload))

			if called {
				t.Error("handler should not have been called")
			}
		})
	}
}

func TestReceiveZeroScoreIsValid(t *testing.T) {
	var got []domain.ScoreEvent
	l := NewListener(gameOrigin, func(event domain.ScoreEvent) {
		got = append(got, event)
	}, testLogger())

	l.Receive(gameOrigin, []byte(`{"type":"GAME_OVER","score":0}`))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Score != 0 {
		t.Errorf("expected score 0, got %d", got[0].Score)
	}
}

func TestReceiveDropsInvalidLevelKeepsScore(t *testing.T) {
	var got []domain.ScoreEvent
	l := NewListener(gameOrigin, func(event domain.ScoreEvent) {
		got = append(got, event)
	}, testLogger())

	l.Receive(gameOrigin, []byte(`{"type":"GAME_OVER","score":10,"level":-3}`))

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Level != nil {
		t.Errorf("invalid level should be dropped, got %d", *got[0].Level)
	}
}

func TestDetachStopsDelivery(t *testing.T) {
	called := false
	l := NewListener(gameOrigin, func(domain.ScoreEvent) {
		called = true
	}, testLogger())

	l.Detach()
	l.Receive(gameOrigin, []byte(`{"type":"GAME_OVER","score":42}`))

	if called {
		t.Error("handler should not fire after Detach")
	}
}
