package restauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func newTokenServer(t *testing.T, tokenCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			tokenCalls.Add(1)
			if err := r.ParseForm(); err != nil {
				t.Errorf("bad token form: %v", err)
			}
			if r.Form.Get("grant_type") != "client_credentials" {
				t.Errorf("expected client_credentials grant, got %q", r.Form.Get("grant_type"))
			}
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
		case "/api/echo":
			if r.Header.Get("Authorization") != "Bearer tok-123" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"ok": true, "q": r.URL.Query().Get("q")})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestToken_CachedAfterFirstExchange(t *testing.T) {
	var tokenCalls atomic.Int64
	server := newTokenServer(t, &tokenCalls)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"})

	for i := 0; i < 3; i++ {
		if _, err := client.GetJSON(context.Background(), server.URL+"/api/echo", nil); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}

	if tokenCalls.Load() != 1 {
		t.Fatalf("expected exactly 1 token exchange, got %d", tokenCalls.Load())
	}
}

func TestToken_SingleExchangeUnderConcurrency(t *testing.T) {
	var tokenCalls atomic.Int64
	server := newTokenServer(t, &tokenCalls)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"})

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := client.Token(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if token != "tok-123" {
				errs <- errors.New("unexpected token " + token)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent token fetch failed: %v", err)
	}

	if tokenCalls.Load() != 1 {
		t.Fatalf("expected a single shared token exchange, got %d", tokenCalls.Load())
	}
}

func TestToken_ErrorDescriptionSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error_description": "invalid client"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "bad"})

	_, err := client.Token(context.Background())
	if err == nil {
		t.Fatal("expected token error")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.Status != http.StatusUnauthorized || statusErr.Message != "invalid client" {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestGetJSON_SkipsEmptyParams(t *testing.T) {
	var tokenCalls atomic.Int64
	server := newTokenServer(t, &tokenCalls)
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"})

	data, err := client.GetJSON(context.Background(), server.URL+"/api/echo", map[string]string{"q": "42", "empty": ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data["q"] != "42" {
		t.Fatalf("expected q=42 echoed, got %v", data["q"])
	}
}

func TestPostJSON_NonOKStatusWithMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "missing productId"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"})

	_, err := client.PostJSON(context.Background(), server.URL+"/api/policy/proposal", map[string]any{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Message != "missing productId" {
		t.Fatalf("expected carrier message surfaced, got %q", statusErr.Message)
	}
}

func TestPostJSON_ToleratesEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/token" {
			json.NewEncoder(w).Encode(map[string]string{"access_token": "tok"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ClientID: "id", ClientSecret: "secret"})

	data, err := client.PostJSON(context.Background(), server.URL+"/api/print/policy/send", map[string]any{"policyNo": "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty map for empty body, got %v", data)
	}
}
