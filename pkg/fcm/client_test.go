package fcm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_SendToTopic_Success(t *testing.T) {
	var gotPath string
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "projects/p1/messages/42"})
	}))
	defer srv.Close()

	c := NewClient("p1", srv.Client()).WithBaseURL(srv.URL)
	name, err := c.SendToTopic(context.Background(), "admins",
		Notification{Title: "Nouvelle réservation", Body: "Une nouvelle demande a été reçue."},
		map[string]string{"collection": "reservations"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "projects/p1/messages/42" {
		t.Errorf("unexpected name %q", name)
	}
	if gotPath != "/v1/projects/p1/messages:send" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if got.Message.Topic != "admins" {
		t.Errorf("expected topic=admins, got %q", got.Message.Topic)
	}
	if got.Message.Notification.Title != "Nouvelle réservation" {
		t.Errorf("unexpected title %q", got.Message.Notification.Title)
	}
	if got.Message.Webpush == nil || got.Message.Webpush.Notification["icon"] != DefaultIcon {
		t.Error("expected webpush icon to be set")
	}
}

func TestClient_SendToTopic_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	c := NewClient("p1", srv.Client()).WithBaseURL(srv.URL)
	if _, err := c.SendToTopic(context.Background(), "admins", Notification{Title: "t"}, nil); err == nil {
		t.Fatal("expected error from API")
	}
}

func TestClient_SendToTopic_NotConfigured(t *testing.T) {
	c := NewClient("", http.DefaultClient)
	_, err := c.SendToTopic(context.Background(), "admins", Notification{}, nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewClientFromCredentials_InvalidJSON(t *testing.T) {
	if _, err := NewClientFromCredentials(context.Background(), "p1", []byte("{bad")); err == nil {
		t.Error("expected error for malformed credentials")
	}
}
