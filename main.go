// Program pskprop serves a live radio-propagation radius map: it ingests
// PSKReporter spot reports over MQTT, keeps the ones involving a station
// within a configurable radius of home, retains a sliding time window of
// them, and streams the result to any number of map clients over SSE.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"pskprop/config"
	"pskprop/control"
	"pskprop/diag"
	"pskprop/filter"
	"pskprop/hub"
	"pskprop/pskreporter"
	"pskprop/store"
	"pskprop/web"
)

// Version is the release identifier reported at startup.
const Version = "1.2.0"

const statusInterval = 60 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yaml (or set "+config.EnvConfigPath+")")
	flag.Parse()

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if err := setupLogging(cfg.Logging.File); err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}

	log.Printf("pskprop v%s starting...", Version)
	cfg.Print()

	settings, err := cfg.Settings()
	if err != nil {
		log.Fatalf("Error in filter settings: %v", err)
	}
	filters := filter.NewConfig(settings)
	engine := filter.NewEngine(filters)
	dots := store.New(cfg.Store.Capacity)
	broadcaster := hub.New(hub.DefaultQueueSize)
	tracker := diag.New(dots.Len, broadcaster.SubscriberCount)

	feed := pskreporter.NewClient(pskreporter.Options{
		Broker:      cfg.MQTT.Broker,
		Port:        cfg.MQTT.Port,
		ClientID:    cfg.MQTT.ClientID,
		Keepalive:   cfg.Keepalive(),
		TopicPrefix: cfg.MQTT.TopicPrefix,
	}, filters, engine, dots, broadcaster, tracker)

	ctrl := control.New(filters, dots, broadcaster, feed)
	server := web.NewServer(filters, ctrl, dots, broadcaster, tracker, feed)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Age sweep: evict expired dots and tell subscribers the new count.
	go dots.Sweep(ctx, store.SweepInterval,
		func() time.Duration { return filters.Current().MaxAge },
		func(remaining int) {
			broadcaster.Broadcast(hub.TypeCount, hub.CountPayload{Count: remaining})
		})

	if err := feed.Connect(); err != nil {
		log.Fatalf("Error connecting to PSKReporter: %v", err)
	}

	go statusLoop(ctx, tracker, dots, broadcaster)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.BindAddress, cfg.HTTP.Port)
	go func() {
		if err := server.Start(addr); err != nil {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	cancel()
	feed.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}

// statusLoop prints a one-line pipeline summary once a minute.
func statusLoop(ctx context.Context, tracker *diag.Tracker, dots *store.Store, broadcaster *hub.Hub) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			line := fmt.Sprintf("Status: %s seen, %s plotted, %d retained, %d subscribers",
				humanize.Comma(int64(tracker.Seen())),
				humanize.Comma(int64(tracker.Accepted())),
				dots.Len(),
				broadcaster.SubscriberCount())
			if isStdoutTTY() {
				line = "\033[2m" + line + "\033[0m"
			}
			log.Print(line)
		}
	}
}

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
