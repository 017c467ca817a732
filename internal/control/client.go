// Package control wraps the server's request/response API. Every call
// carries the session token so the server can pair control actions with the
// matching stream subscriber.
package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const sessionHeader = "X-Session-ID"

// Ack is the server's uniform control-endpoint response. Resumed is not a
// wire field: a start against a paused run acks with message "resumed", and
// Start derives the flag from that.
type Ack struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Resumed bool   `json:"-"`
}

// StoryList is the server's scenario listing: the selectable ids plus the
// one the session currently has selected.
type StoryList struct {
	IDs      []string `json:"ids"`
	Selected string   `json:"selected"`
}

// ClientConfig carries the control client's knobs.
type ClientConfig struct {
	BaseURL      string
	SessionToken string
	HTTPClient   *http.Client
	Logger       *log.Logger
}

// Client issues control requests against the simulation server.
type Client struct {
	base   string
	token  string
	http   *http.Client
	logger *log.Logger
}

func NewClient(cfg ClientConfig) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		token:  cfg.SessionToken,
		http:   httpClient,
		logger: logger,
	}
}

// Start begins or resumes the run. storyID is optional; the server keeps the
// currently selected story when it is empty.
func (c *Client) Start(ctx context.Context, storyID string) (Ack, error) {
	ack, err := c.postAck(ctx, "/api/start", startRequest{StoryID: storyID})
	if err == nil {
		ack.Resumed = ack.Message == "resumed"
	}
	return ack, err
}

// Stop requests a pause at the next safe point. The run stays live until the
// server pushes a paused frame on the stream.
func (c *Client) Stop(ctx context.Context) (Ack, error) {
	return c.postAck(ctx, "/api/stop", nil)
}

// Restart discards the current run and begins a fresh one.
func (c *Client) Restart(ctx context.Context, storyID string) (Ack, error) {
	return c.postAck(ctx, "/api/restart", startRequest{StoryID: storyID})
}

// PlayerSay delivers operator text for the named player character.
func (c *Client) PlayerSay(ctx context.Context, name, text string) (Ack, error) {
	if strings.TrimSpace(text) == "" {
		return Ack{}, fmt.Errorf("control: empty player input")
	}
	return c.postAck(ctx, "/api/player_say", sayRequest{Name: name, Text: text})
}

// SelectStory switches the scenario the next start/restart will use.
func (c *Client) SelectStory(ctx context.Context, storyID string) (Ack, error) {
	return c.postAck(ctx, "/api/select_story", selectRequest{ID: storyID})
}

// State fetches the full authoritative snapshot as raw JSON.
func (c *Client) State(ctx context.Context) (json.RawMessage, error) {
	return c.getRaw(ctx, "/api/state")
}

// VisibleState fetches the snapshot filtered to what the named actor can
// perceive; with an empty actor the server applies its default filter.
func (c *Client) VisibleState(ctx context.Context, actor string) (json.RawMessage, error) {
	path := "/api/visible_state"
	if actor != "" {
		path += "?actor=" + url.QueryEscape(actor)
	}
	return c.getRaw(ctx, path)
}

// Stories lists the selectable scenarios and the session's current pick.
func (c *Client) Stories(ctx context.Context) (StoryList, error) {
	raw, err := c.getRaw(ctx, "/api/stories")
	if err != nil {
		return StoryList{}, err
	}
	var listing struct {
		OK bool `json:"ok"`
		StoryList
	}
	if err := json.Unmarshal(raw, &listing); err != nil {
		return StoryList{}, fmt.Errorf("control: decode stories: %w", err)
	}
	if !listing.OK {
		return StoryList{}, fmt.Errorf("control: /api/stories rejected")
	}
	return listing.StoryList, nil
}

type startRequest struct {
	StoryID string `json:"story_id,omitempty"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type sayRequest struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func (c *Client) postAck(ctx context.Context, path string, body any) (Ack, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Ack{}, fmt.Errorf("control: encode %s request: %w", path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, payload)
	if err != nil {
		return Ack{}, fmt.Errorf("control: build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return Ack{}, fmt.Errorf("control: %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Ack{}, fmt.Errorf("control: read %s response: %w", path, err)
	}

	var ack Ack
	if len(data) > 0 {
		if err := json.Unmarshal(data, &ack); err != nil {
			return Ack{}, fmt.Errorf("control: decode %s response: %w", path, err)
		}
	}
	if resp.StatusCode != http.StatusOK {
		msg := ack.Message
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return ack, fmt.Errorf("control: %s: status %d: %s", path, resp.StatusCode, msg)
	}
	if !ack.OK {
		return ack, fmt.Errorf("control: %s rejected: %s", path, ack.Message)
	}
	return ack, nil
}

func (c *Client) getRaw(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("control: build %s request: %w", path, err)
	}
	req.Header.Set(sessionHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("control: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("control: %s: status %d", path, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("control: read %s response: %w", path, err)
	}
	return json.RawMessage(data), nil
}
