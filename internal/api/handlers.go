package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/consumer"
	"github.com/nextlevelbuilder/guildforge/internal/jobs"
	"github.com/nextlevelbuilder/guildforge/internal/store"
	"github.com/nextlevelbuilder/guildforge/internal/worldgen"
)

const searchLimit = 10

// codeIssuer issues short-lived player link codes.
type codeIssuer interface {
	Issue(ctx context.Context, externalUserID string) (string, error)
}

// queueDepth reports the worldgen queue length for /api/status.
type queueDepth interface {
	Len(ctx context.Context) (int64, error)
}

// Handler serves the catalogue endpoints.
type Handler struct {
	stores     store.Stores
	layout     worldgen.Layout
	codes      codeIssuer
	queue      queueDepth
	reconciler *consumer.Consumer
	mapURL     string
}

// NewHandler creates the catalogue handler. codes and queue may be nil in
// tests; the matching endpoints then report unavailable.
func NewHandler(stores store.Stores, layout worldgen.Layout, codes codeIssuer, queue queueDepth, rec *consumer.Consumer, mapURL string) *Handler {
	return &Handler{
		stores:     stores,
		layout:     layout,
		codes:      codes,
		queue:      queue,
		reconciler: rec,
		mapURL:     mapURL,
	}
}

// RegisterRoutes registers all catalogue routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /api/status", h.handleStatus)
	mux.HandleFunc("GET /api/villages", h.handleListVillages)
	mux.HandleFunc("GET /api/villages/{id}/buildings", h.handleVillageBuildings)
	mux.HandleFunc("GET /api/navigate/{channelExternalId}", h.handleNavigate)
	mux.HandleFunc("GET /api/buildings/search", h.handleSearch)
	mux.HandleFunc("GET /api/buildings/{id}/spawn", h.handleSpawn)
	mux.HandleFunc("GET /api/crossroads", h.handleCrossroads)
	mux.HandleFunc("POST /api/mappings/sync", h.handleSync)
	mux.HandleFunc("POST /api/players/link", h.handlePlayerLink)
	mux.HandleFunc("POST /api/buildings/{id}/pin", h.handlePin)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stores.Stats.Stats(r.Context())
	if err != nil {
		slog.Error("api.status", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load stats"})
		return
	}
	resp := map[string]any{
		"villageCount":  stats.VillageCount,
		"buildingCount": stats.BuildingCount,
	}
	if h.queue != nil {
		if depth, err := h.queue.Len(r.Context()); err == nil {
			resp["queueDepth"] = depth
		}
	}
	if last, err := h.stores.Jobs.LastCompletedAt(r.Context()); err == nil && last.CompletedAt != nil {
		resp["lastCompletedAt"] = last.CompletedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

type villageResponse struct {
	ID            int64  `json:"id"`
	ExternalID    string `json:"externalId"`
	Name          string `json:"name"`
	CenterX       int    `json:"centerX"`
	CenterZ       int    `json:"centerZ"`
	BuildingCount int    `json:"buildingCount"`
}

func (h *Handler) handleListVillages(w http.ResponseWriter, r *http.Request) {
	groups, err := h.stores.Groups.List(r.Context(), false)
	if err != nil {
		slog.Error("api.villages", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list villages"})
		return
	}
	counts, err := h.stores.Stats.BuildingCountByGroup(r.Context())
	if err != nil {
		slog.Error("api.villages.counts", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count buildings"})
		return
	}

	resp := make([]villageResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, villageResponse{
			ID:            g.ID,
			ExternalID:    g.ExternalID,
			Name:          g.Name,
			CenterX:       g.CenterX,
			CenterZ:       g.CenterZ,
			BuildingCount: counts[g.ID],
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type buildingResponse struct {
	ID            int64  `json:"id"`
	ExternalID    string `json:"externalId"`
	Name          string `json:"name"`
	Topic         string `json:"topic,omitempty"`
	BuildingIndex int    `json:"buildingIndex"`
	BuildingX     *int   `json:"buildingX"`
	BuildingZ     *int   `json:"buildingZ"`
	IsArchived    bool   `json:"isArchived"`
}

func buildingResp(c store.Channel) buildingResponse {
	return buildingResponse{
		ID:            c.ID,
		ExternalID:    c.ExternalID,
		Name:          c.Name,
		Topic:         c.Topic,
		BuildingIndex: c.BuildingIndex,
		BuildingX:     c.BuildingX,
		BuildingZ:     c.BuildingZ,
		IsArchived:    c.IsArchived,
	}
}

func (h *Handler) handleVillageBuildings(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid village id"})
		return
	}
	if _, err := h.stores.Groups.ByID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "village not found"})
			return
		}
		slog.Error("api.village", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load village"})
		return
	}

	channels, err := h.stores.Channels.ListByGroup(r.Context(), id, true)
	if err != nil {
		slog.Error("api.village.buildings", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list buildings"})
		return
	}
	resp := make([]buildingResponse, 0, len(channels))
	for _, c := range channels {
		resp = append(resp, buildingResp(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleNavigate(w http.ResponseWriter, r *http.Request) {
	ch, err := h.stores.Channels.ByExternalID(r.Context(), r.PathValue("channelExternalId"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "channel not mapped"})
			return
		}
		slog.Error("api.navigate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to resolve channel"})
		return
	}
	g, err := h.stores.Groups.ByID(r.Context(), ch.GroupID)
	if err != nil {
		slog.Error("api.navigate.group", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to resolve village"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"channelExternalId": ch.ExternalID,
		"channelName":       ch.Name,
		"isArchived":        ch.IsArchived,
		"buildingIndex":     ch.BuildingIndex,
		"buildingX":         ch.BuildingX,
		"buildingZ":         ch.BuildingZ,
		"village": map[string]any{
			"externalId": g.ExternalID,
			"name":       g.Name,
			"centerX":    g.CenterX,
			"centerZ":    g.CenterZ,
		},
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing q parameter"})
		return
	}
	channels, err := h.stores.Channels.Search(r.Context(), q, searchLimit)
	if err != nil {
		slog.Error("api.search", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "search failed"})
		return
	}
	resp := make([]buildingResponse, 0, len(channels))
	for _, c := range channels {
		resp = append(resp, buildingResp(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSpawn(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid building id"})
		return
	}
	ch, err := h.stores.Channels.ByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "building not found"})
			return
		}
		slog.Error("api.spawn", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load building"})
		return
	}
	if ch.BuildingX == nil || ch.BuildingZ == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "building not materialized"})
		return
	}
	x, y, z := h.layout.BuildingEntrance(*ch.BuildingX, *ch.BuildingZ)
	writeJSON(w, http.StatusOK, map[string]any{"x": x, "y": y, "z": z})
}

func (h *Handler) handleCrossroads(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"name":          "Crossroads",
		"centerX":       0,
		"centerZ":       0,
		"stationSlots":  h.layout.CrossroadsStationSlots,
		"stationRadius": h.layout.CrossroadsStationRadius,
	}
	if h.mapURL != "" {
		resp["mapUrl"] = fmt.Sprintf("%s/#world:0:%d:0:150:0:0:0:0:perspective", h.mapURL, h.layout.BaseY+1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if h.reconciler == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "sync unavailable"})
		return
	}
	var snap consumer.GuildSnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid snapshot"})
		return
	}
	res, err := h.reconciler.Sync(r.Context(), snap)
	if err != nil {
		slog.Error("api.sync", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "sync failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handlePlayerLink(w http.ResponseWriter, r *http.Request) {
	if h.codes == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "link codes unavailable"})
		return
	}
	var req struct {
		ExternalUserID string `json:"externalUserId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExternalUserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "externalUserId required"})
		return
	}
	code, err := h.codes.Issue(r.Context(), req.ExternalUserID)
	if err != nil {
		slog.Error("api.link", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to issue code"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": code})
}

func (h *Handler) handlePin(w http.ResponseWriter, r *http.Request) {
	if h.reconciler == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "pin relay unavailable"})
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid building id"})
		return
	}
	var pin jobs.Pin
	if err := json.NewDecoder(r.Body).Decode(&pin); err != nil || pin.Author == "" || pin.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "author and content required"})
		return
	}

	ch, err := h.stores.Channels.ByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "building not found"})
			return
		}
		slog.Error("api.pin", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load building"})
		return
	}
	g, err := h.stores.Groups.ByID(r.Context(), ch.GroupID)
	if err != nil {
		slog.Error("api.pin.group", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to resolve village"})
		return
	}
	if err := h.reconciler.EnqueuePin(r.Context(), g, ch, pin); err != nil {
		slog.Error("api.pin.enqueue", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to enqueue pin"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "enqueued"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
