package httpclient

import (
	"net/http"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	client := New()
	if client.Timeout != DefaultOptions().Timeout {
		t.Fatalf("expected default timeout, got %s", client.Timeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("expected *http.Transport, got %T", client.Transport)
	}
	if transport.MaxIdleConnsPerHost != 16 {
		t.Fatalf("unexpected MaxIdleConnsPerHost %d", transport.MaxIdleConnsPerHost)
	}
}

type stubTransport struct{}

func (stubTransport) RoundTrip(*http.Request) (*http.Response, error) { return nil, nil }

func TestNew_Overrides(t *testing.T) {
	client := New(WithTimeout(0), WithTransport(stubTransport{}))
	if client.Timeout != time.Duration(0) {
		t.Fatalf("expected no timeout, got %s", client.Timeout)
	}
	if _, ok := client.Transport.(stubTransport); !ok {
		t.Fatalf("expected custom transport, got %T", client.Transport)
	}
}
