package control

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	sid    string
	body   string
}

func newControlServer(t *testing.T, respond func(path string) (int, string)) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			sid:    r.Header.Get("X-Session-ID"),
			body:   string(body),
		})
		mu.Unlock()

		status, payload := respond(r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, payload)
	}))

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]recordedRequest, len(requests))
		copy(out, requests)
		return out
	}
}

func TestStartCarriesTokenAndStory(t *testing.T) {
	srv, recorded := newControlServer(t, func(string) (int, string) {
		return http.StatusOK, `{"ok":true,"message":"resumed"}`
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, SessionToken: "sid-42"})
	ack, err := client.Start(context.Background(), "chernobog")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !ack.Resumed {
		t.Fatalf("message \"resumed\" must set the resumed flag, got %+v", ack)
	}

	reqs := recorded()
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	req := reqs[0]
	if req.method != http.MethodPost || req.path != "/api/start" {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.sid != "sid-42" {
		t.Fatalf("session header missing, got %q", req.sid)
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(req.body), &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded["story_id"] != "chernobog" {
		t.Fatalf("unexpected body %q", req.body)
	}
}

func TestRejectedAckBecomesError(t *testing.T) {
	srv, _ := newControlServer(t, func(string) (int, string) {
		return http.StatusOK, `{"ok":false,"message":"run already active"}`
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, SessionToken: "sid"})
	ack, err := client.Start(context.Background(), "")
	if err == nil {
		t.Fatalf("expected error for ok=false")
	}
	if ack.Message != "run already active" {
		t.Fatalf("ack must still carry the message, got %+v", ack)
	}
}

func TestHTTPErrorStatus(t *testing.T) {
	srv, _ := newControlServer(t, func(string) (int, string) {
		return http.StatusConflict, `{"ok":false,"message":"busy"}`
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, SessionToken: "sid"})
	if _, err := client.Stop(context.Background()); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestPlayerSayValidatesInput(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:1", SessionToken: "sid"})
	if _, err := client.PlayerSay(context.Background(), "Doctor", "   "); err == nil {
		t.Fatalf("blank input must be rejected locally")
	}
}

func TestVisibleStateQuery(t *testing.T) {
	srv, recorded := newControlServer(t, func(string) (int, string) {
		return http.StatusOK, `{"location":"hall"}`
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, SessionToken: "sid"})
	raw, err := client.VisibleState(context.Background(), "Dr. Kal'tsit")
	if err != nil {
		t.Fatalf("visible_state: %v", err)
	}
	var snap map[string]any
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap["location"] != "hall" {
		t.Fatalf("unexpected snapshot %v", snap)
	}

	reqs := recorded()
	if reqs[0].query != "actor=Dr.+Kal%27tsit" {
		t.Fatalf("unexpected query %q", reqs[0].query)
	}
}

func TestStoriesDecodesListing(t *testing.T) {
	srv, _ := newControlServer(t, func(string) (int, string) {
		return http.StatusOK, `{"ok":true,"ids":["default","chernobog"],"selected":"chernobog"}`
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, SessionToken: "sid"})
	listing, err := client.Stories(context.Background())
	if err != nil {
		t.Fatalf("stories: %v", err)
	}
	if len(listing.IDs) != 2 || listing.IDs[0] != "default" {
		t.Fatalf("unexpected story ids %+v", listing.IDs)
	}
	if listing.Selected != "chernobog" {
		t.Fatalf("unexpected selection %q", listing.Selected)
	}
}

func TestSelectStorySendsID(t *testing.T) {
	srv, recorded := newControlServer(t, func(string) (int, string) {
		return http.StatusOK, `{"ok":true}`
	})
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, SessionToken: "sid"})
	if _, err := client.SelectStory(context.Background(), "chernobog"); err != nil {
		t.Fatalf("select_story: %v", err)
	}

	reqs := recorded()
	if len(reqs) != 1 || reqs[0].path != "/api/select_story" {
		t.Fatalf("unexpected request %+v", reqs)
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(reqs[0].body), &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded["id"] != "chernobog" {
		t.Fatalf("server reads the id field, body was %q", reqs[0].body)
	}
}
