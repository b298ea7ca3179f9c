package carrier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rto_engine/config"
)

func TestTrackSendsAWBAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track" || r.URL.Query().Get("awb") != "AWB 1" {
			t.Errorf("unexpected request %s", r.URL)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"awb_number":"AWB 1","current_status":"DELIVERED"}}`))
	}))
	defer srv.Close()

	c := NewClient(config.CarrierConfig{BaseURL: srv.URL + "/", Token: "secret", Timeout: time.Second})
	body, err := c.Track(context.Background(), "AWB 1")
	if err != nil {
		t.Fatalf("track: %v", err)
	}
	if string(body) != `{"data":{"awb_number":"AWB 1","current_status":"DELIVERED"}}` {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestTrackErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("awb") == "bad" {
			_, _ = w.Write([]byte("<html>"))
			return
		}
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(config.CarrierConfig{BaseURL: srv.URL})
	if _, err := c.Track(context.Background(), "X"); err == nil {
		t.Fatal("expected error for 502")
	}
	if _, err := c.Track(context.Background(), "bad"); err == nil {
		t.Fatal("expected error for non-json body")
	}
	if _, err := NewClient(config.CarrierConfig{}).Track(context.Background(), "X"); err == nil {
		t.Fatal("expected error without base url")
	}
}
