package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRegisterMountsProfilingWhenEnabled(t *testing.T) {
	mux := http.NewServeMux()
	if !(Config{EnablePprof: true}).Register(mux) {
		t.Fatalf("expected profiling endpoints to be registered")
	}

	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 OK, got %d", resp.Code)
	}
}

func TestRegisterSkipsWhenDisabled(t *testing.T) {
	mux := http.NewServeMux()
	if (Config{}).Register(mux) {
		t.Fatalf("expected profiling endpoints to stay unregistered")
	}

	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}
