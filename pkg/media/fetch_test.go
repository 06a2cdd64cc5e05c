package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/out.wav":
			w.Header().Set("Content-Type", "audio/wav")
			_, _ = w.Write([]byte("RIFFdata"))
		case "/big.bin":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), WithFetchTimeout(time.Second), WithMaxBytes(32))

	payload, err := fetcher.Fetch(context.Background(), server.URL+"/out.wav")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(payload.Data) != "RIFFdata" || payload.ContentType != "audio/wav" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if hint := payload.Hint(); !strings.HasPrefix(hint, "audio/wav ") || !strings.HasSuffix(hint, "/out.wav") {
		t.Fatalf("unexpected hint %q", hint)
	}

	if _, err := fetcher.Fetch(context.Background(), server.URL+"/missing.png"); err == nil {
		t.Fatalf("expected error for 404")
	}
	if _, err := fetcher.Fetch(context.Background(), server.URL+"/big.bin"); err == nil {
		t.Fatalf("expected size limit error")
	}
	if _, err := fetcher.Fetch(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestHTTPFetcher_DataURI(t *testing.T) {
	fetcher := NewHTTPFetcher(nil)
	payload, err := fetcher.Fetch(context.Background(), EncodeDataURI("image/png", []byte("png")))
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if payload.ContentType != "image/png" || string(payload.Data) != "png" || payload.URL != "data:image/png" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestHTTPFetcher_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHTTPFetcher(server.Client()).Fetch(ctx, server.URL+"/slow.png"); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
