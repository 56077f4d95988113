package webhook

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"tripquest/core"
)

func countingServer(hits *int32) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		_, _ = io.ReadAll(r.Body)
		_ = r.Body.Close()
	}))
}

func TestSinkPostsToEndpoints(t *testing.T) {
	var hits int32
	srv := countingServer(&hits)
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewPointsEvent(10, 1.0, "Visited beaches"))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", hits)
	}
}

func TestSinkFiltersKinds(t *testing.T) {
	var hits int32
	srv := countingServer(&hits)
	defer srv.Close()

	sink := New([]string{srv.URL}, WithKinds(core.KindBadge))
	sink.OnEvent(core.NewPointsEvent(10, 1.0, "ignored"))
	sink.OnEvent(core.NewBadgeEvent(core.Badge{ID: "first_steps", Name: "First Steps", Icon: "👣"}))

	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected only the badge event, got %d hits", hits)
	}
}

func TestSinkSetsEventHeader(t *testing.T) {
	var gotKind string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKind = r.Header.Get("X-Tripquest-Event")
	}))
	defer srv.Close()

	sink := New([]string{srv.URL})
	sink.OnEvent(core.NewToast(core.KindInfo, "hello"))

	if gotKind != string(core.KindInfo) {
		t.Fatalf("event header = %q", gotKind)
	}
}
