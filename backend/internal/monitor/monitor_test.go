package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/design/driver"
)

func TestUpdateAndSnapshotOrdersByRank(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.Update(2, driver.Counters{TotalOptimizing: 20}, false)
	r.Update(0, driver.Counters{TotalOptimizing: 5}, true)
	r.Update(1, driver.Counters{TotalOptimizing: 10}, false)

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 ranks, got %d", len(snap))
	}
	for i, want := range []int{0, 1, 2} {
		if snap[i].Rank != want {
			t.Errorf("snapshot[%d].Rank = %d, want %d", i, snap[i].Rank, want)
		}
	}
	if !snap[0].LastFeasible {
		t.Error("expected rank 0's LastFeasible to be carried over from Update")
	}
}

func TestProgressBindsRegistryUpdateToRank(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())
	progress := r.Progress(3)

	progress(driver.Counters{TotalOptimizing: 42, CellUsage: 7})

	snap := r.Snapshot()
	if len(snap) != 1 || snap[0].Rank != 3 {
		t.Fatalf("expected a single entry for rank 3, got %+v", snap)
	}
	if snap[0].Counters.TotalOptimizing != 42 || snap[0].Counters.CellUsage != 7 {
		t.Errorf("Progress did not forward counters: %+v", snap[0].Counters)
	}
}

func TestHandlerServesProgressAsJSON(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())
	r.Update(0, driver.Counters{TotalOptimizing: 9}, true)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/progress")
	if err != nil {
		t.Fatalf("GET /progress: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var got []Status
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(got) != 1 || got[0].Rank != 0 || got[0].Counters.TotalOptimizing != 9 {
		t.Errorf("unexpected snapshot payload: %+v", got)
	}
}

func TestHandlerServesPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	r.Update(5, driver.Counters{TotalOptimizing: 11, CeaselessGlobalOptimizing: 3, TracerUsage: 2, CellUsage: 1}, false)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		body.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if !strings.Contains(body.String(), "crystaldesigner_total_optimizing") {
		t.Errorf("expected exposition to contain the total_optimizing gauge, got:\n%s", body.String())
	}
}

func TestNewRegistryIsSafeAcrossMultipleInstances(t *testing.T) {
	// Each NewRegistry must register against its own prometheus.Registerer
	// so building more than one Registry in the same process (e.g. across
	// these tests) never panics on duplicate metric registration.
	a := NewRegistry(prometheus.NewRegistry())
	b := NewRegistry(prometheus.NewRegistry())
	a.Update(0, driver.Counters{}, false)
	b.Update(0, driver.Counters{}, false)
}
