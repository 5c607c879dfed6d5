package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smarlify/playful-hub/internal/analytics"
	"github.com/smarlify/playful-hub/internal/channel"
	"github.com/smarlify/playful-hub/internal/config"
	"github.com/smarlify/playful-hub/internal/display"
	"github.com/smarlify/playful-hub/internal/domain"
	"github.com/smarlify/playful-hub/internal/games"
	"github.com/smarlify/playful-hub/internal/identity"
	"github.com/smarlify/playful-hub/internal/submission"
	"github.com/smarlify/playful-hub/internal/websocket"
)

// Handler provides HTTP handlers for the hub API
type Handler struct {
	catalog  *games.Catalog
	board    *display.Board
	manager  *submission.Manager
	hub      *websocket.Hub
	sink     analytics.Sink
	identity *config.IdentityConfig
	maxLimit int
	logger   *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *games.Catalog,
	board *display.Board,
	manager *submission.Manager,
	hub *websocket.Hub,
	sink analytics.Sink,
	cfg *config.Config,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		catalog:  catalog,
		board:    board,
		manager:  manager,
		hub:      hub,
		sink:     sink,
		identity: &cfg.Identity,
		maxLimit: cfg.Leaderboard.MaxLimit,
		logger:   logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)
	r.Use(identity.Middleware(h.identity))

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/games", h.ListGames)

		r.Route("/games/{gameID}", func(r chi.Router) {
			r.Get("/", h.GetGame)
			r.Get("/leaderboard", h.GetLeaderboard)
			r.Post("/scores", h.PostScore)

			r.Route("/submission", func(r chi.Router) {
				r.Get("/", h.GetSubmission)
				r.Post("/", h.PostSubmission)
				r.Post("/retry", h.RetrySubmission)
				r.Delete("/", h.DismissSubmission)
			})
		})

		// WebSocket info endpoint
		r.Get("/ws/stats", h.GetWebSocketStats)
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}
	websocket.ServeWs(h.hub, userID, h.SessionFactory(), h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"total_connections": h.hub.GetTotalConnections(),
	})
}

// ListGames returns the hub catalog
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]interface{}{
		"published":   h.catalog.Published(),
		"coming_soon": h.catalog.ComingSoon(),
	})
}

// GetGame returns one catalog entry
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameFromRequest(w, r)
	if err != nil {
		return
	}
	h.writeSuccess(w, game)
}

// GetLeaderboard returns the rendered top-N leaderboard view
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameFromRequest(w, r)
	if err != nil {
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= h.maxLimit {
			limit = l
		}
	}

	h.sink.Track(r.Context(), analytics.EventLeaderboardView, map[string]any{
		"game": game.ID,
	})

	view := h.board.LoadLimit(r.Context(), game, limit)
	h.writeSuccess(w, view)
}

// scoreRequest is the HTTP relay shape for a game-frame message: the
// declared origin of the browser message event plus its raw payload.
type scoreRequest struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

// PostScore is the HTTP ingress for relayed score events. It shares the
// origin-gated channel listener with the WebSocket path.
func (h *Handler) PostScore(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameFromRequest(w, r)
	if err != nil {
		return
	}

	userID, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	receive, detach, err := h.attach(userID, game.ID)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	defer detach()

	receive(req.Origin, req.Payload)

	flow := h.manager.Flow(userID, game)
	h.writeSuccess(w, flow.Snapshot())
}

// GetSubmission returns the current submission flow state
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameFromRequest(w, r)
	if err != nil {
		return
	}

	userID, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	h.writeSuccess(w, h.manager.Flow(userID, game).Snapshot())
}

// submitRequest carries the name prompt's form fields
type submitRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// PostSubmission submits the name prompt
func (h *Handler) PostSubmission(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameFromRequest(w, r)
	if err != nil {
		return
	}

	userID, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	flow := h.manager.Flow(userID, game)
	if err := flow.Submit(r.Context(), req.Name, req.Email); err != nil {
		h.writeSubmissionError(w, flow, err)
		return
	}

	h.writeSuccess(w, flow.Snapshot())
}

// RetrySubmission re-runs a failed submission
func (h *Handler) RetrySubmission(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameFromRequest(w, r)
	if err != nil {
		return
	}

	userID, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	flow := h.manager.Flow(userID, game)
	if err := flow.Retry(r.Context()); err != nil {
		h.writeSubmissionError(w, flow, err)
		return
	}

	h.writeSuccess(w, flow.Snapshot())
}

// DismissSubmission skips or closes the popup
func (h *Handler) DismissSubmission(w http.ResponseWriter, r *http.Request) {
	game, err := h.gameFromRequest(w, r)
	if err != nil {
		return
	}

	userID, ok := identity.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	flow := h.manager.Flow(userID, game)
	if err := flow.Dismiss(r.Context()); err != nil {
		h.writeSubmissionError(w, flow, err)
		return
	}

	h.writeSuccess(w, flow.Snapshot())
}

// writeSubmissionError maps flow errors to HTTP statuses. Store failures
// keep the snapshot in the payload so the client can offer a retry.
func (h *Handler) writeSubmissionError(w http.ResponseWriter, flow *submission.Flow, err error) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case err == domain.ErrNoSubmission:
		h.writeError(w, http.StatusNotFound, err)
	case err == domain.ErrSubmissionBusy:
		h.writeError(w, http.StatusConflict, err)
	default:
		h.logger.Error("submission failed", "error", err)
		h.writeJSON(w, http.StatusBadGateway, APIResponse{
			Success: false,
			Error:   "failed to submit score",
			Data:    flow.Snapshot(),
		})
	}
}

// gameFromRequest resolves the {gameID} path parameter, writing the error
// response itself when the game is unknown.
func (h *Handler) gameFromRequest(w http.ResponseWriter, r *http.Request) (*games.Game, error) {
	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return nil, domain.ErrInvalidRequest
	}

	game, err := h.catalog.ByID(gameID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return nil, err
	}
	return game, nil
}

// SessionFactory returns the factory the websocket layer uses to open
// score channels for game views.
func (h *Handler) SessionFactory() websocket.SessionFactory {
	return sessionFactoryFunc(h.attach)
}

type sessionFactoryFunc func(userID, gameID string) (func(origin string, payload []byte), func(), error)

func (f sessionFactoryFunc) Attach(userID, gameID string) (func(origin string, payload []byte), func(), error) {
	return f(userID, gameID)
}

// attach binds a channel listener for one game view to the user's
// submission flow. The listener's origin gate uses the origin parsed from
// the game's URL; teardown detaches it so late messages are dropped.
func (h *Handler) attach(userID, gameID string) (func(origin string, payload []byte), func(), error) {
	game, err := h.catalog.ByID(gameID)
	if err != nil {
		return nil, nil, err
	}
	origin, err := h.catalog.Origin(gameID)
	if err != nil {
		return nil, nil, err
	}

	flow := h.manager.Flow(userID, game)
	ctx := identity.WithUserID(context.Background(), userID)
	listener := channel.NewListener(origin, func(event domain.ScoreEvent) {
		flow.HandleScore(ctx, event)
	}, h.logger)
	return listener.Receive, listener.Detach, nil
}
