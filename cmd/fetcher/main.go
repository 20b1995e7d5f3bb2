// go-nntparc fetcher: runs refresh cycles from the command line, for
// initial imports and debugging without the web server.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	prof "github.com/go-while/go-cpu-mem-profiler"

	"github.com/go-while/go-nntparc/internal/config"
	"github.com/go-while/go-nntparc/internal/database"
	"github.com/go-while/go-nntparc/internal/processor"
)

var appVersion = "-unset-"

var Prof *prof.Profiler

func main() {
	config.AppVersion = appVersion
	log.Printf("Starting go-nntparc fetcher (version %s)", config.AppVersion)

	var (
		configPath = flag.String("config", "", "Path to config file (default: data/config.toml)")
		group      = flag.String("group", "", "Fetch only this server/group URL instead of the configured list")
		loops      = flag.Int("loops", 1, "Run this many refresh cycles (0 = forever, interval from config)")
		debugFlag  = flag.Bool("debug", false, "Log raw protocol lines")
		pprofAddr  = flag.String("pprof", "", "Start pprof web server on this address (e.g. :51111)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	if *debugFlag {
		cfg.Debug = true
	}

	groups := cfg.Groups
	if *group != "" {
		groups = []string{*group}
	}
	if len(groups) == 0 {
		log.Printf("[ERROR] no groups configured and no -group given")
		os.Exit(1)
	}

	if *pprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(*pprofAddr)
		Prof.StartMemProfile(5*time.Minute, 30*time.Second)
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	defer db.Close()

	proc := processor.NewProcessor(db, cfg)

	exitCode := 0
	for cycle := 1; *loops == 0 || cycle <= *loops; cycle++ {
		if err := proc.UpdateMessages(groups, cfg.FetchNewCount, cfg.FetchCount); err != nil {
			log.Printf("[ERROR] cycle %d finished with errors: %v", cycle, err)
			exitCode = 1
		}
		if *loops == 0 || cycle < *loops {
			time.Sleep(cfg.FetchInterval())
		}
	}
	os.Exit(exitCode)
}
