// go-nntparc web server: serves the archive UI and runs the periodic
// refresh loop in the background.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/go-while/go-nntparc/internal/config"
	"github.com/go-while/go-nntparc/internal/database"
	"github.com/go-while/go-nntparc/internal/processor"
	"github.com/go-while/go-nntparc/internal/web"
)

var appVersion = "-unset-"

func main() {
	config.AppVersion = appVersion
	log.Printf("Starting go-nntparc web server (version %s)", config.AppVersion)

	var (
		configPath = flag.String("config", "", "Path to config file (default: data/config.toml)")
		listenAddr = flag.String("listen", "", "Override web listen address (e.g. :8080)")
		noFetch    = flag.Bool("no-fetch", false, "Disable the background refresh loop")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.Web.ListenAddr = *listenAddr
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	defer db.Close()

	proc := processor.NewProcessor(db, cfg)

	if *noFetch {
		log.Printf("[FETCH] background refresh loop disabled")
	} else if len(cfg.Groups) == 0 {
		log.Printf("[FETCH] no groups configured, background refresh loop disabled")
	} else {
		go scheduledUpdate(proc, cfg)
	}

	server := web.NewServer(db, cfg, proc)
	if err := server.Run(); err != nil {
		log.Printf("[ERROR] web server failed: %v", err)
		os.Exit(1)
	}
}

// scheduledUpdate runs refresh cycles forever, a fixed interval apart.
// Errors from one cycle are logged and never terminate the loop.
func scheduledUpdate(proc *processor.Processor, cfg *config.Config) {
	for {
		runCycle(proc, cfg)
		time.Sleep(cfg.FetchInterval())
	}
}

func runCycle(proc *processor.Processor, cfg *config.Config) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] panic during scheduled update: %v", r)
		}
	}()
	if err := proc.UpdateMessages(cfg.Groups, cfg.FetchNewCount, cfg.FetchCount); err != nil {
		log.Printf("[ERROR] scheduled update finished with errors: %v", err)
	}
}
