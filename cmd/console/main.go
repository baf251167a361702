package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chzyer/readline"

	"netsim/internal/config"
	"netsim/internal/console"
	"netsim/internal/repository"
	"netsim/internal/repository/sqlite"
	"netsim/internal/service"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	dbPath := flag.String("db", "", "SQLite database for :save and :open (default from config)")
	labPath := flag.String("lab", "", "Lab file loaded at startup")
	noDB := flag.Bool("nodb", false, "Run without saved topologies")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, _, err = config.LoadFromPath(*configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *labPath != "" {
		cfg.Lab.Path = *labPath
	}

	var repo repository.Repository
	if !*noDB {
		r, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer r.Close()
		repo = r
	}

	sim := service.New(service.Options{
		HistoryCapacity: cfg.History.Capacity,
		Repository:      repo,
	})
	if cfg.Lab.Path != "" {
		if err := sim.LoadLab(cfg.Lab.Path); err != nil {
			log.Fatalf("Failed to load lab: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	repl := console.NewREPL(sim, os.Stdout)
	rl, err := readline.NewEx(repl.ReadlineConfig())
	if err != nil {
		log.Fatalf("Failed to start console: %v", err)
	}
	defer rl.Close()
	log.SetOutput(rl.Stderr())

	fmt.Println("netsim console. Type :help for commands, :quit to leave.")
	if err := repl.Run(ctx, console.ReadlineReader{Instance: rl}); err != nil {
		log.Printf("Console error: %v", err)
	}
}
