package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/marlinquant/marlin/internal/config"
	"github.com/marlinquant/marlin/internal/handlers"
	"github.com/marlinquant/marlin/internal/logger"
	"github.com/marlinquant/marlin/internal/metrics"
	"github.com/marlinquant/marlin/internal/strategy"
	marlin "github.com/marlinquant/marlin/marlin_lib"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	if err := logger.InitWithConfig(cfg.Logging.LogLevel, cfg.Logging.LogFile); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger.Always.Printf("🚀 Marlin pricing server starting - Port: %s", cfg.Port)

	if cfg.Logging.LogLevel == "verbose" {
		fmt.Printf("⚠️  VERBOSE LOGGING ENABLED - per-batch details will be logged to %s\n", cfg.Logging.LogFile)
	}

	// Engine scheduling mode from config
	executionMode := cfg.Engine.ExecutionMode
	if executionMode == "" {
		executionMode = "auto"
	}
	engine := marlin.NewEngineForced(executionMode)

	strategyCfg := strategy.DefaultConfig()
	if cfg.Engine.Workers > 0 {
		strategyCfg.Workers = cfg.Engine.Workers
	}
	if cfg.Engine.L1CacheKB > 0 {
		strategyCfg.L1CacheBytes = cfg.Engine.L1CacheKB * 1024
	}
	if cfg.Engine.L2CacheKB > 0 {
		strategyCfg.L2CacheBytes = cfg.Engine.L2CacheKB * 1024
	}
	if cfg.Engine.L3CacheKB > 0 {
		strategyCfg.L3CacheBytes = cfg.Engine.L3CacheKB * 1024
	}
	engine.SetStrategyConfig(strategyCfg)
	logger.Always.Printf("🔧 EXECUTION MODE: %s (workers=%d)", engine.Mode(), strategyCfg.Workers)

	collector, err := metrics.NewComputeCollector()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	pricingHandler := handlers.NewPricingHandler(engine, cfg, collector)

	// Setup router
	r := mux.NewRouter()
	r.Use(handlers.RequestID)
	r.Use(collector.InstrumentHandler)

	r.HandleFunc("/api/v1/price", pricingHandler.HandlePrice).Methods("POST")
	r.HandleFunc("/api/v1/greeks", pricingHandler.HandleGreeks).Methods("POST")
	r.HandleFunc("/api/v1/implied-vol", pricingHandler.HandleImpliedVol).Methods("POST")
	r.HandleFunc("/api/v1/boundary", pricingHandler.HandleBoundary).Methods("POST")

	r.HandleFunc("/health", pricingHandler.HandleHealth).Methods("GET")
	r.Handle("/metrics", collector.Handler()).Methods("GET")

	fmt.Printf("🌐 Server starting on http://localhost:%s\n", cfg.Port)
	logger.Always.Printf("🌐 Server starting on http://localhost:%s", cfg.Port)

	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
