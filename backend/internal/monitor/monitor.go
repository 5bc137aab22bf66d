// Package monitor backs the `serve` subcommand: a live JSON progress
// endpoint plus a Prometheus /metrics endpoint mirroring the four
// driver watchdog counters for every running rank.
package monitor

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/design/driver"
)

// Status is one rank's last-reported watchdog state.
type Status struct {
	Rank         int             `json:"rank"`
	Counters     driver.Counters `json:"counters"`
	LastFeasible bool            `json:"last_feasible"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Registry holds the latest Status per rank, safe for concurrent
// updates from every worker goroutine and concurrent reads from the
// HTTP handlers. It is the single piece of state the monitor server
// and the fanned-out driver.Execute calls share.
type Registry struct {
	mu     sync.RWMutex
	status map[int]Status

	gatherer prometheus.Gatherer

	totalOptimizing *prometheus.GaugeVec
	ceaselessGlobal *prometheus.GaugeVec
	tracerUsage     *prometheus.GaugeVec
	cellUsage       *prometheus.GaugeVec
}

// NewRegistry builds a Registry and registers its four gauges against
// reg (use prometheus.NewRegistry() in tests to avoid colliding with
// the global default registry across test runs; pass
// prometheus.DefaultRegisterer in the `serve` command).
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	gauge := func(name, help string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crystaldesigner",
			Name:      name,
			Help:      help,
		}, []string{"rank"})
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}
	return &Registry{
		status:          make(map[int]Status),
		gatherer:        gatherer,
		totalOptimizing: gauge("total_optimizing", "Total force steps taken by this rank's current attempt."),
		ceaselessGlobal: gauge("ceaseless_global_optimizing", "Global steps since this rank's last coordination-composition success."),
		tracerUsage:     gauge("tracer_usage", "Force steps since this rank's last tracing-index rebuild."),
		cellUsage:       gauge("cell_usage", "Force steps since this rank's last cell reduction."),
	}
}

// Update records rank's latest counters, suitable for passing directly
// as a driver.Parameters.Progress callback via Progress(rank).
func (r *Registry) Update(rank int, c driver.Counters, lastFeasible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[rank] = Status{Rank: rank, Counters: c, LastFeasible: lastFeasible, UpdatedAt: time.Now()}

	label := prometheus.Labels{"rank": strconv.Itoa(rank)}
	r.totalOptimizing.With(label).Set(float64(c.TotalOptimizing))
	r.ceaselessGlobal.With(label).Set(float64(c.CeaselessGlobalOptimizing))
	r.tracerUsage.With(label).Set(float64(c.TracerUsage))
	r.cellUsage.With(label).Set(float64(c.CellUsage))
}

// Progress returns a driver.Parameters.Progress-shaped closure bound to
// rank, so the driver never needs to know about ranks or registries
// itself.
func (r *Registry) Progress(rank int) func(driver.Counters) {
	return func(c driver.Counters) {
		r.Update(rank, c, false)
	}
}

// Snapshot returns every rank's current status, ordered by rank.
func (r *Registry) Snapshot() []Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Status, 0, len(r.status))
	for _, s := range r.status {
		out = append(out, s)
	}
	sortByRank(out)
	return out
}

// Handler builds the gin engine exposing GET /progress (JSON snapshot)
// and GET /metrics (Prometheus exposition format).
func (r *Registry) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/progress", func(c *gin.Context) {
		c.JSON(http.StatusOK, r.Snapshot())
	})
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})))

	return engine
}

func sortByRank(s []Status) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Rank < s[j-1].Rank; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
