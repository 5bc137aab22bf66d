package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/sarat-asymmetrica/crystaldesigner/backend/internal/monitor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a standalone live-progress and Prometheus metrics endpoint",
	Long: `serve starts the same /progress and /metrics endpoints "design
--serve-port" attaches to a running batch, but with an empty registry —
useful for smoke-testing the endpoint shape. Nothing outside this
process can report into the registry, so it stays empty.`,
	RunE: runServe,
}

var serveListenPort int

func init() {
	serveCmd.Flags().IntVar(&serveListenPort, "port", 8080, "Port to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	registry := monitor.NewRegistry(defaultPrometheusRegisterer())
	return serveProgress(registry, serveListenPort)
}

// defaultPrometheusRegisterer returns the registerer a live `design` or
// `serve` invocation registers its gauges against: the process-wide
// default registry, safe because each process builds at most one
// monitor.Registry.
func defaultPrometheusRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}

func serveProgress(registry *monitor.Registry, port int) error {
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, registry.Handler())
}
