/**
 * Shadow Hunter Main Application Entry Point.
 *
 * Boots the capture engine, the in-process event bus, the analysis
 * pipeline, the dashboard broadcast hub, and the Prometheus/HTTP
 * surface, then blocks until an interrupt tears everything down
 * cleanly: privilege check, config load, component wiring, graceful
 * shutdown. Runs unattended — no interactive CLI.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kleaSCM/shadowhunter/pkg/api"

	"github.com/kleaSCM/shadowhunter/internal/broadcast"
	"github.com/kleaSCM/shadowhunter/internal/bus"
	"github.com/kleaSCM/shadowhunter/internal/capture"
	"github.com/kleaSCM/shadowhunter/internal/config"
	"github.com/kleaSCM/shadowhunter/internal/correlator"
	"github.com/kleaSCM/shadowhunter/internal/detector"
	"github.com/kleaSCM/shadowhunter/internal/enricher"
	"github.com/kleaSCM/shadowhunter/internal/graph"
	"github.com/kleaSCM/shadowhunter/internal/metrics"
	"github.com/kleaSCM/shadowhunter/internal/mlscore"
	"github.com/kleaSCM/shadowhunter/internal/obslog"
	"github.com/kleaSCM/shadowhunter/internal/pipeline"
	"github.com/kleaSCM/shadowhunter/internal/probe"
	"github.com/kleaSCM/shadowhunter/internal/response"
)

var log = obslog.New("main")

func main() {
	configPath := flag.String("config", "shadowhunter.yaml", "path to the YAML configuration file")
	ifaceName := flag.String("interface", "", "capture interface (overrides config)")
	graphDBPath := flag.String("graph-db", "shadowhunter_graph.db", "SQLite path for the relationship graph (empty for in-memory only)")
	httpAddr := flag.String("addr", ":8090", "dashboard/metrics HTTP listen address")
	dpiWorkers := flag.Int("dpi-workers", 4, "number of concurrent DPI worker goroutines")
	flag.Parse()

	if !isRoot() {
		log.Warnf("running without root — packet capture will likely fail to open the interface")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	iface := *ifaceName
	if iface == "" && cfg.Capture.Interface != nil {
		iface = *cfg.Capture.Interface
	}
	if iface == "" {
		def, err := capture.GetDefaultInterface()
		if err != nil {
			log.Fatalf("no capture interface specified and none could be auto-detected: %v", err)
		}
		iface = def.Name
	}

	m := metrics.New()

	graphStore, err := buildGraphStore(*graphDBPath)
	if err != nil {
		log.Fatalf("opening graph store: %v", err)
	}
	defer graphStore.Close()

	geo := buildGeoIP(cfg)
	if geo != nil {
		defer geo.Close()
	}

	hub := broadcast.NewHub()
	graphAnalyzer := graph.NewAnalyzer(graphStore, cfg.Graph.CentralityThreshold, cfg.Graph.MinConnections,
		time.Duration(cfg.Graph.CentralityIntervalS)*time.Second)

	pl := pipeline.New(pipeline.Config{
		Detector:   detector.NewPipeline(),
		Scorer:     mlscore.New(nil, nil),
		Sessions:   correlator.NewSessionTracker(time.Duration(cfg.Session.WindowMinutes) * time.Minute),
		GraphStore: graphStore,
		GraphAnal:  graphAnalyzer,
		Probe: probe.New(probe.Config{
			Enabled:            cfg.Probe.Enabled,
			MaxProbesPerMinute: cfg.Probe.MaxPerMin,
			Cooldown:           time.Duration(cfg.Probe.CooldownS * float64(time.Second)),
			Timeout:            time.Duration(cfg.Probe.TimeoutS * float64(time.Second)),
		}),
		Response: response.New(response.Config{
			Enabled:    cfg.Response.Enabled,
			MaxBlocked: cfg.Response.MaxBlocked,
			AutoExpire: time.Duration(cfg.Response.TTLSeconds * float64(time.Second)),
		}),
		Hub:       hub,
		Metrics:   m,
		GeoIP:     geo,
		MLEnabled: cfg.ML.Enabled,
	})

	eventBus := bus.New()
	eventBus.Subscribe(capture.Topic, pl.Handle)

	captureCfg := capture.DefaultConfig(iface)
	captureCfg.QueueDepth = cfg.Capture.BufferSize
	engine, err := capture.NewEngine(captureCfg)
	if err != nil {
		log.Fatalf("opening capture engine on %s: %v", iface, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.RunDPIWorkers(ctx, eventBus, *dpiWorkers)
	go func() {
		if err := engine.Start(ctx); err != nil && ctx.Err() == nil {
			log.Fatalf("starting capture: %v", err)
		}
	}()

	go reportGauges(ctx, m, pl, hub)

	server := &http.Server{Addr: *httpAddr, Handler: api.NewRouter(hub, pl)}
	go func() {
		log.Infof("dashboard/metrics listening on %s", *httpAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("http server: %v", err)
		}
	}()

	log.Infof("Shadow Hunter running on %s (ML %s, probe %s, auto-response %s)",
		iface, enabledLabel(cfg.ML.Enabled), enabledLabel(cfg.Probe.Enabled), enabledLabel(cfg.Response.Enabled))

	waitForShutdown()

	log.Infof("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)
	engine.Stop()
	cancel()
}

func buildGraphStore(path string) (graph.Store, error) {
	if path == "" {
		return graph.NewMemoryStore(), nil
	}
	return graph.NewSQLiteStore(path)
}

func buildGeoIP(cfg *config.Config) *enricher.GeoIPService {
	if cfg.GeoIP.DatabasePath == nil || *cfg.GeoIP.DatabasePath == "" {
		return nil
	}
	svc, err := enricher.NewGeoIPService(*cfg.GeoIP.DatabasePath, "")
	if err != nil {
		log.Warnf("GeoIP database unavailable, continuing without geo enrichment: %v", err)
		return nil
	}
	return svc
}

// reportGauges periodically pushes point-in-time counts into the
// Prometheus gauges that Record* methods don't cover directly.
func reportGauges(ctx context.Context, m *metrics.Metrics, pl *pipeline.Pipeline, hub *broadcast.Hub) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.DashboardClients.Set(float64(hub.ClientCount()))
			if nodes, edges, err := pl.GraphSnapshot(); err == nil {
				m.GraphNodes.Set(float64(nodes))
				m.GraphEdges.Set(float64(edges))
			}
		}
	}
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func enabledLabel(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func isRoot() bool {
	return os.Geteuid() == 0
}
