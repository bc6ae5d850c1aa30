package console

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerSetsRobotsHeader(t *testing.T) {
	handler := Handler()
	req := httptest.NewRequest(http.MethodGet, "/console/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(RobotsTagHeader); got != RobotsTagValue {
		t.Fatalf("expected %s header %q, got %q", RobotsTagHeader, RobotsTagValue, got)
	}
}

func TestHandlerServesHTML(t *testing.T) {
	handler := Handler()
	req := httptest.NewRequest(http.MethodGet, "/console/", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "claimlens") {
		t.Fatal("console page missing product name")
	}
}
