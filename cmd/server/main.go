package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netsim/internal/config"
	"netsim/internal/console"
	"netsim/internal/handler"
	"netsim/internal/hub"
	"netsim/internal/metrics"
	"netsim/internal/repository/sqlite"
	"netsim/internal/service"
	"netsim/internal/watcher"
)

func main() {
	// Command line flags; set flags override the config file
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", config.DefaultAddr, "HTTP listen address")
	dbPath := flag.String("db", config.DefaultDBPath, "SQLite database path")
	labPath := flag.String("lab", "", "Lab file loaded at startup")
	watchLab := flag.Bool("watch", false, "Reload the lab file when it changes")
	sshAddr := flag.String("ssh", "", "Serve device consoles over SSH on this address")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting netsim server...")

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if path != "" {
		log.Printf("Config loaded: %s", path)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "db":
			cfg.Database.Path = *dbPath
		case "lab":
			cfg.Lab.Path = *labPath
		case "watch":
			cfg.Lab.Watch = *watchLab
		case "ssh":
			cfg.SSH.Enabled = true
			cfg.SSH.Addr = *sshAddr
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Printf("Configuration: %s", cfg.Summary())

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize event bus and SSE hub
	eventBus := service.NewEventBus()
	sseHub := hub.New()
	go sseHub.Run(ctx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case event := <-eventChan:
				sseHub.Broadcast(string(event.Type), event)
			case <-ctx.Done():
				eventBus.Unsubscribe(eventChan)
				return
			}
		}
	}()

	collector := metrics.NewCollector()
	sim := service.New(service.Options{
		HistoryCapacity: cfg.History.Capacity,
		Repository:      repo,
		EventBus:        eventBus,
		Metrics:         collector,
	})

	if cfg.Lab.Path != "" {
		if err := sim.LoadLab(cfg.Lab.Path); err != nil {
			log.Fatalf("Failed to load lab: %v", err)
		}
		if cfg.Lab.Watch {
			w := watcher.New(cfg.Lab.Path, sim)
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("Lab watcher stopped: %v", err)
				}
			}()
		}
	}

	if cfg.SSH.Enabled {
		if err := startConsole(ctx, cfg.SSH, sim, collector); err != nil {
			log.Fatalf("Failed to start SSH console: %v", err)
		}
	}

	// Setup routes
	mux := http.NewServeMux()
	handler.NewSimulatorHandler(sim).Routes(mux)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)

	if cfg.Metrics.IsEnabled() {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			collector,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func startConsole(ctx context.Context, cfg config.SSHConfig, sim *service.Simulator, collector *metrics.Collector) error {
	opts := console.ServerOptions{Metrics: collector}
	if cfg.Password != nil {
		opts.Password = *cfg.Password
	}
	if cfg.HostKeyPath != nil {
		key, err := console.LoadHostKey(*cfg.HostKeyPath)
		if err != nil {
			return err
		}
		opts.HostKey = key
	}

	srv, err := console.NewServer(sim, opts)
	if err != nil {
		return err
	}
	go func() {
		if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
			log.Printf("SSH console stopped: %v", err)
		}
	}()
	return nil
}
