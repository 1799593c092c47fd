package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pickleball-score-service/internal/app/match"
	"pickleball-score-service/internal/app/overlay"
	"pickleball-score-service/internal/domain"
	"pickleball-score-service/internal/metrics"
)

// Pinger reports backing-store reachability, for readiness probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler wires HTTP routes to the match and overlay services.
type Handler struct {
	matches  *match.Service
	overlays *overlay.Service
	pinger   Pinger
	recorder *metrics.Recorder
	logger   *slog.Logger
}

// NewHandler constructs a Handler with defaults.
func NewHandler(matches *match.Service, overlays *overlay.Service, pinger Pinger, recorder *metrics.Recorder, logger *slog.Logger) *Handler {
	return &Handler{
		matches:  matches,
		overlays: overlays,
		pinger:   pinger,
		recorder: recorder,
		logger:   logger,
	}
}

// Health reports the service health.
func (h *Handler) Health(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	if err := r.Context().Err(); err != nil {
		writeError(w, r, nethttp.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

// Ready reports readiness for traffic (e.g., for Kubernetes probes).
func (h *Handler) Ready(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			writeError(w, r, nethttp.StatusServiceUnavailable, "store unreachable", h.logger)
			return
		}
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ready"}, h.logger)
}

// CreateMatch creates a new match from posted setup parameters.
func (h *Handler) CreateMatch(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodPost {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	var params match.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid request body", h.logger)
		return
	}
	if params.Rules == (domain.GameRules{}) {
		params.Rules = domain.DefaultRules()
	}

	m, err := h.matches.CreateMatch(r.Context(), params)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusCreated, m, h.logger)
}

// MatchRoutes dispatches /matches/{id}[/...] paths.
func (h *Handler) MatchRoutes(w nethttp.ResponseWriter, r *nethttp.Request) {
	id, rest, ok := splitMatchPath(r.URL.Path)
	if !ok {
		writeError(w, r, nethttp.StatusBadRequest, "invalid match id", h.logger)
		return
	}

	switch {
	case rest == "" && r.Method == nethttp.MethodGet:
		h.getMatch(w, r, id)
	case rest == "games" && r.Method == nethttp.MethodGet:
		h.listGames(w, r, id)
	case rest == "games" && r.Method == nethttp.MethodDelete:
		h.truncateGames(w, r, id)
	case rest == "rally" && r.Method == nethttp.MethodPost:
		h.recordRally(w, r, id)
	case rest == "server" && r.Method == nethttp.MethodPost:
		h.setServer(w, r, id)
	case rest == "score" && r.Method == nethttp.MethodPost:
		h.setScore(w, r, id)
	case rest == "game" && r.Method == nethttp.MethodPost:
		h.changeGame(w, r, id)
	case rest == "start" && r.Method == nethttp.MethodPost:
		h.startMatch(w, r, id)
	case rest == "complete" && r.Method == nethttp.MethodPost:
		h.completeMatch(w, r, id)
	case rest == "overlay" && r.Method == nethttp.MethodPost:
		h.activateOverlay(w, r, id)
	default:
		writeError(w, r, nethttp.StatusNotFound, "not found", h.logger)
	}
}

// OverlayRoutes dispatches /overlay/{token}[/stream] paths.
func (h *Handler) OverlayRoutes(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet {
		writeError(w, r, nethttp.StatusMethodNotAllowed, "method not allowed", h.logger)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/overlay/")
	token, rest, _ := strings.Cut(path, "/")
	token, err := url.PathUnescape(token)
	if err != nil || token == "" {
		writeError(w, r, nethttp.StatusBadRequest, "invalid overlay token", h.logger)
		return
	}

	switch rest {
	case "":
		h.overlaySnapshot(w, r, token)
	case "stream":
		h.overlayStream(w, r, token)
	default:
		writeError(w, r, nethttp.StatusNotFound, "not found", h.logger)
	}
}

func (h *Handler) getMatch(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	m, err := h.matches.Match(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

func (h *Handler) listGames(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	games, err := h.matches.Games(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, games, h.logger)
}

func (h *Handler) truncateGames(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	after, err := strconv.Atoi(r.URL.Query().Get("after"))
	if err != nil || after < 1 {
		writeError(w, r, nethttp.StatusBadRequest, "invalid after parameter", h.logger)
		return
	}
	if err := h.matches.TruncateGames(r.Context(), id, after); err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

func (h *Handler) recordRally(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	var body struct {
		Won bool `json:"won"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	out, err := h.matches.RecordRally(r.Context(), id, body.Won)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, out, h.logger)
}

func (h *Handler) setServer(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	var body struct {
		Server int `json:"server"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	g, err := h.matches.SetServer(r.Context(), id, body.Server)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, g, h.logger)
}

func (h *Handler) setScore(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	var body struct {
		Team  domain.TeamSide `json:"team"`
		Value int             `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	g, err := h.matches.SetScore(r.Context(), id, body.Team, body.Value)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, g, h.logger)
}

func (h *Handler) changeGame(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	var body struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, nethttp.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	m, err := h.matches.ChangeGame(r.Context(), id, body.Delta)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

func (h *Handler) startMatch(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	m, err := h.matches.StartMatch(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

func (h *Handler) completeMatch(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	m, err := h.matches.CompleteMatch(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

func (h *Handler) activateOverlay(w nethttp.ResponseWriter, r *nethttp.Request, id string) {
	m, err := h.matches.SetActiveOverlay(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, m, h.logger)
}

func (h *Handler) overlaySnapshot(w nethttp.ResponseWriter, r *nethttp.Request, token string) {
	snap, err := h.overlays.SnapshotFor(r.Context(), token)
	if err != nil {
		writeDomainError(w, r, err, h.logger)
		return
	}
	writeJSON(w, nethttp.StatusOK, snap, h.logger)
}

// splitMatchPath parses /matches/{id}[/rest] into its parts.
func splitMatchPath(path string) (id, rest string, ok bool) {
	path = strings.TrimPrefix(path, "/matches/")
	if path == "" || path == "/" {
		return "", "", false
	}
	id, rest, _ = strings.Cut(path, "/")
	unescaped, err := url.PathUnescape(id)
	if err != nil || unescaped == "" || strings.ContainsAny(unescaped, " \t/") {
		return "", "", false
	}
	return unescaped, rest, true
}
