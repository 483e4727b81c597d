package soap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCall_EnvelopeAndHeaders(t *testing.T) {
	var gotBody, gotAction, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotAction = r.Header.Get("SOAPAction")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`<ok/>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Username: "agent", Password: "secret"}, Options{})
	result, err := client.Call(context.Background(), CallInput{
		Operation:  "teklifOlustur",
		Body:       "<urunKodu>SAGLIK</urunKodu>",
		SOAPAction: "urn:teklifOlustur",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got fault %q", result.Fault)
	}

	if gotAction != "urn:teklifOlustur" {
		t.Fatalf("expected SOAPAction header, got %q", gotAction)
	}
	if !strings.HasPrefix(gotContentType, "text/xml") {
		t.Fatalf("expected text/xml content type, got %q", gotContentType)
	}
	for _, want := range []string{
		"<soapenv:Envelope",
		"<soapenv:Body>",
		"<teklifOlustur>",
		"<urunKodu>SAGLIK</urunKodu>",
		"<wsse:UsernameToken>",
		"<wsse:Username>agent</wsse:Username>",
		"<wsse:Password>secret</wsse:Password>",
	} {
		if !strings.Contains(gotBody, want) {
			t.Fatalf("expected envelope to contain %q, got:\n%s", want, gotBody)
		}
	}
}

func TestCall_NoSecurityHeaderWithoutCredentials(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`<ok/>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{}, Options{})
	if _, err := client.Call(context.Background(), CallInput{Operation: "Ping"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(gotBody, "wsse:Security") {
		t.Fatalf("expected no WS-Security header, got:\n%s", gotBody)
	}
}

func TestCall_EscapesFreeTextFields(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`<ok/>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{Username: "a", Password: "p<w&d"}, Options{})
	if _, err := client.Call(context.Background(), CallInput{Operation: "Op"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(gotBody, "p&lt;w&amp;d") {
		t.Fatalf("expected escaped credential text, got:\n%s", gotBody)
	}
}

func TestCall_FaultClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<soap:Envelope><soap:Body><soap:Fault><faultstring>Gecersiz kimlik</faultstring></soap:Fault></soap:Body></soap:Envelope>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{}, Options{})
	result, err := client.Call(context.Background(), CallInput{Operation: "Op"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected fault result")
	}
	if result.Fault != "Gecersiz kimlik" {
		t.Fatalf("expected faultstring text, got %q", result.Fault)
	}
	if !strings.Contains(result.Raw, "faultstring") {
		t.Fatal("expected raw body preserved")
	}
}

func TestCall_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("server down"))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{}, Options{})
	result, err := client.Call(context.Background(), CallInput{Operation: "Op"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure result")
	}
	if result.Fault != "HTTP 500" {
		t.Fatalf("expected HTTP 500 fault, got %q", result.Fault)
	}
	if result.Raw != "server down" {
		t.Fatalf("expected raw body preserved, got %q", result.Raw)
	}
}

func TestCall_TransportErrorReturned(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", Credentials{}, Options{})

	_, err := client.Call(context.Background(), CallInput{Operation: "Op"})
	if err == nil {
		t.Fatal("expected transport error")
	}
}

func TestCall_MockModeSkipsNetwork(t *testing.T) {
	// Endpoint is unroutable; mock mode must never touch it.
	client := NewClient("http://127.0.0.1:1", Credentials{}, Options{MockMode: true})

	result, err := client.Call(context.Background(), CallInput{Operation: "CreatePolicy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success in mock mode")
	}
	if !strings.Contains(result.Raw, "<operation>CreatePolicy</operation>") {
		t.Fatalf("expected mock response to echo operation, got %q", result.Raw)
	}
}

func TestCall_InvalidFragmentRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<ok/>`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Credentials{}, Options{})
	_, err := client.Call(context.Background(), CallInput{Operation: "Op", Body: "<broken"})
	if err == nil {
		t.Fatal("expected error for malformed body fragment")
	}
}
