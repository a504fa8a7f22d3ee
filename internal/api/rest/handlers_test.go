package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fortuna/rinkside/internal/api/rest"
	"github.com/fortuna/rinkside/internal/metrics"
	"github.com/fortuna/rinkside/internal/service"
	"github.com/fortuna/rinkside/internal/store/memory"
	"github.com/fortuna/rinkside/internal/toi"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, body []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = body
	c.sets++
	return nil
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func newTestServer(t *testing.T, opts ...rest.HandlerOption) (*httptest.Server, *memory.Store) {
	t.Helper()
	st := memory.New()
	memory.Seed(st)
	svc := service.NewAnalyticsService(st, toi.NewCache(st, toi.DefaultTolerance()))
	router := rest.NewRouter(rest.NewHandler(svc, st, opts...), metrics.NewManager(), nil)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, st
}

func getJSON(t *testing.T, url string, out any) (int, http.Header) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("decode %s: %v body=%s", url, err, string(body))
		}
	}
	return resp.StatusCode, resp.Header
}

func TestPlayerEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)
	base := ts.URL + "/api/v1/games/1001/players/10"

	tests := []struct {
		name  string
		path  string
		field string
		sub   string
		want  float64
	}{
		{"on-ice corsi for", "/onice", "corsi", "for", 3},
		{"on-ice 5v5 goals for", "/onice?state=5v5", "goals", "for", 1},
		{"on-ice power play corsi", "/onice?strength=pp", "corsi", "for", 1},
		{"individual attempts", "/individual", "iCF", "", 2},
		{"corsi against", "/corsi", "CA", "", 3},
		{"fenwick against", "/corsi?fenwick=true", "CA", "", 2},
		{"penalties taken", "/penalties", "pen_taken", "", 1},
		{"gar goal diff at 5v5", "/gar?state=5v5", "GDIFF", "", 1},
		{"toi even strength", "/toi", "ev_toi", "", 1000},
		{"row toi used", "/row?slice=pp", "toi_used", "", 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			status, _ := getJSON(t, base+tt.path, &body)
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d", status)
			}
			got := body[tt.field]
			if tt.sub != "" {
				nested, ok := got.(map[string]any)
				if !ok {
					t.Fatalf("field %s is not an object: %v", tt.field, got)
				}
				got = nested[tt.sub]
			}
			if got != tt.want {
				t.Fatalf("%s.%s = %v, want %v", tt.field, tt.sub, got, tt.want)
			}
		})
	}
}

func TestGARWeightsFromQuery(t *testing.T) {
	ts, _ := newTestServer(t)

	var body map[string]any
	status, _ := getJSON(t, ts.URL+"/api/v1/games/1001/players/11/gar?goals_per_penalty=0.5&goals_per_win=0", &body)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["gar_pen"] != 0.5 {
		t.Fatalf("expected gar_pen 0.5, got %v", body["gar_pen"])
	}
	if body["war_total"] != nil {
		t.Fatalf("expected null WAR without goals per win, got %v", body["war_total"])
	}
}

func TestNonNumericIDsDegradeToZero(t *testing.T) {
	ts, _ := newTestServer(t)

	var body map[string]any
	status, _ := getJSON(t, ts.URL+"/api/v1/games/abc/players/xyz/onice", &body)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	corsi := body["corsi"].(map[string]any)
	if corsi["for"] != float64(0) || corsi["pct"] != nil {
		t.Fatalf("expected zero corsi, got %v", corsi)
	}
}

func TestSkaterListings(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"corsi", "/skaters/corsi", 4},
		{"corsi with toi floor", "/skaters/corsi?min_toi=950", 2},
		{"xg", "/skaters/xg", 4},
		{"xg with high floor", "/skaters/xg?min_xg=1000", 0},
		{"quadrant", "/skaters/quadrant", 4},
		{"unknown params are ignored", "/skaters/corsi?x=1", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list []map[string]any
			status, _ := getJSON(t, ts.URL+"/api/v1/games/1001"+tt.path, &list)
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d", status)
			}
			if len(list) != tt.want {
				t.Fatalf("expected %d entries, got %d", tt.want, len(list))
			}
		})
	}

	var empty []map[string]any
	if status, _ := getJSON(t, ts.URL+"/api/v1/games/9999/skaters/xg", &empty); status != http.StatusOK || len(empty) != 0 {
		t.Fatalf("expected empty list for unknown game, got %d entries status %d", len(empty), status)
	}
}

func TestRowNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"unknown game", "/api/v1/games/9999/players/10/row"},
		{"goalie is not a skater", "/api/v1/games/1001/players/30/row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := getJSON(t, ts.URL+tt.path, nil)
			if status != http.StatusNotFound {
				t.Fatalf("expected 404, got %d", status)
			}
		})
	}
}

func TestStoreFailureIs500(t *testing.T) {
	ts, st := newTestServer(t)
	st.Fail(memory.OpOnIceEvents, errors.New("connection reset"))

	var body map[string]any
	status, _ := getJSON(t, ts.URL+"/api/v1/games/1001/players/10/onice", &body)
	if status != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", status)
	}
	if body["details"] == nil {
		t.Fatalf("expected error details, got %v", body)
	}
}

func TestResponseCache(t *testing.T) {
	c := &memCache{data: map[string][]byte{}}
	ts, st := newTestServer(t, rest.WithCache(c, time.Minute))
	url := ts.URL + "/api/v1/games/1001/players/10/corsi"

	if _, h := getJSON(t, url, nil); h.Get("X-Cache") != "MISS" {
		t.Fatalf("expected first request to miss, got %q", h.Get("X-Cache"))
	}

	// A store failure is invisible while the response is cached.
	st.Fail(memory.OpOnIceEvents, errors.New("down"))
	var body map[string]any
	status, h := getJSON(t, url, &body)
	if status != http.StatusOK || h.Get("X-Cache") != "HIT" {
		t.Fatalf("expected cached 200, got %d %q", status, h.Get("X-Cache"))
	}
	if body["CF"] != float64(3) {
		t.Fatalf("expected cached CF 3, got %v", body["CF"])
	}
	if c.sets != 1 {
		t.Fatalf("expected one cache write, got %d", c.sets)
	}
}

func TestBrokenCacheFallsThrough(t *testing.T) {
	ts, _ := newTestServer(t, rest.WithCache(brokenCache{}, time.Minute))

	var body map[string]any
	status, _ := getJSON(t, ts.URL+"/api/v1/games/1001/players/10/corsi", &body)
	if status != http.StatusOK || body["CF"] != float64(3) {
		t.Fatalf("expected computed response, got %d %v", status, body)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _ := newTestServer(t, rest.WithHealthCheck("postgres", func(context.Context) error { return errors.New("refused") }))

	var body map[string]any
	status, _ := getJSON(t, ts.URL+"/health", &body)
	if status != http.StatusServiceUnavailable || body["status"] != "degraded" {
		t.Fatalf("expected degraded health, got %d %v", status, body)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", resp.StatusCode)
	}
}
