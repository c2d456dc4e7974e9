// Package plugin talks to the in-process game-server plugin over HTTP.
// Marker and lectern calls are best-effort side effects: callers log
// failures and move on, they never retry or fail a job over them.
package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client posts markers and lectern books to the plugin HTTP surface.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a plugin client. An empty baseURL disables every
// call, which keeps the worker usable without the plugin installed.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a plugin endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.baseURL != "" }

type markerRequest struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	X     int    `json:"x"`
	Z     int    `json:"z"`
}

type archiveRequest struct {
	ID string `json:"id"`
}

// LecternRequest places a written book through the plugin instead of raw
// SNBT commands.
type LecternRequest struct {
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Z      int      `json:"z"`
	Title  string   `json:"title"`
	Author string   `json:"author"`
	Pages  []string `json:"pages"`
}

// UpsertVillageMarker creates or updates the map marker for a village.
func (c *Client) UpsertVillageMarker(ctx context.Context, id, label string, x, z int) error {
	return c.post(ctx, "/api/markers/village", markerRequest{ID: id, Label: label, X: x, Z: z})
}

// UpsertBuildingMarker creates or updates the map marker for a building.
func (c *Client) UpsertBuildingMarker(ctx context.Context, id, label string, x, z int) error {
	return c.post(ctx, "/api/markers/building", markerRequest{ID: id, Label: label, X: x, Z: z})
}

// ArchiveVillageMarker prefixes the village marker label with [Archived].
func (c *Client) ArchiveVillageMarker(ctx context.Context, id string) error {
	return c.post(ctx, "/api/markers/village/archive", archiveRequest{ID: id})
}

// ArchiveBuildingMarker prefixes the building marker label with [Archived].
func (c *Client) ArchiveBuildingMarker(ctx context.Context, id string) error {
	return c.post(ctx, "/api/markers/building/archive", archiveRequest{ID: id})
}

// PlaceLectern asks the plugin to place a lectern book in-process.
func (c *Client) PlaceLectern(ctx context.Context, req LecternRequest) error {
	return c.post(ctx, "/plugin/lectern", req)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	if !c.Enabled() {
		return nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("plugin: encode %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("plugin: build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("plugin: post %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("plugin: post %s: status %d", path, resp.StatusCode)
	}
	return nil
}
