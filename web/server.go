// Package web exposes the HTTP surface: the live event stream (SSE), the
// filter configuration resource, and the diagnostics endpoints.
//
// Endpoints:
//   - GET  /config  - current filter settings, band enumeration, band colors
//   - POST /config  - partial reconfiguration, {ok, cleared, bands_changed}
//   - GET  /events  - SSE stream: snapshot on connect, then add/count/snapshot
//   - GET  /stats   - counters, drop reasons, subscription topics
//   - GET  /recent  - bounded ring of recent per-message decisions
//   - GET  /metrics - Prometheus exposition
//
// Each /events connection runs in its own handler goroutine draining its hub
// queue; a 15 second keepalive keeps idle connections alive through proxies,
// and disconnects deregister from the hub via defer so abandoned queues are
// never left filling.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pskprop/control"
	"pskprop/diag"
	"pskprop/filter"
	"pskprop/hub"
	"pskprop/spot"
	"pskprop/store"
)

// KeepaliveInterval caps how long an idle /events connection goes without
// traffic before a keepalive comment is sent.
const KeepaliveInterval = 15 * time.Second

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SubscriptionLister reports the ingest client's current topic set.
type SubscriptionLister interface {
	Topics() []string
}

// Server wires the HTTP handlers to the shared pipeline components.
type Server struct {
	cfg     *filter.Config
	ctrl    *control.Controller
	dots    *store.Store
	hub     *hub.Hub
	tracker *diag.Tracker
	subs    SubscriptionLister

	mux    *http.ServeMux
	server *http.Server
}

// NewServer builds the handler set. subs may be nil in tests.
func NewServer(cfg *filter.Config, ctrl *control.Controller, dots *store.Store, h *hub.Hub, tracker *diag.Tracker, subs SubscriptionLister) *Server {
	s := &Server{
		cfg:     cfg,
		ctrl:    ctrl,
		dots:    dots,
		hub:     h,
		tracker: tracker,
		subs:    subs,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/config", s.handleConfig)
	s.mux.HandleFunc("/events", s.handleEvents)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/recent", s.handleRecent)
	s.mux.Handle("/metrics", promhttp.HandlerFor(tracker.Registry(), promhttp.HandlerOpts{}))
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves HTTP on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Printf("HTTP: listening on %s", addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings := s.cfg.Current()
		writeJSON(w, http.StatusOK, map[string]any{
			"home_locator": settings.HomeLocator,
			"home_latlon":  []float64{settings.HomeLat, settings.HomeLon},
			"radius_km":    settings.RadiusKm,
			"age_minutes":  int(settings.MaxAge / time.Minute),
			"bands":        settings.Bands(),
			"all_bands":    spot.SupportedBandNames(),
			"band_colors":  spot.BandColors,
			"map_type":     settings.MapType,
		})
	case http.MethodPost:
		var update control.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, s.ctrl.Apply(update))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleEvents serves one SSE subscriber. The hub queue is the cross-
// goroutine bridge from the ingest and sweep loops into this handler.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Register seeds the queue with a snapshot, so the client always sees
	// the full current state before any live add.
	sub := s.hub.Register(s.dots.Snapshot)
	defer s.hub.Unregister(sub)

	keepalive := time.NewTimer(KeepaliveInterval)
	defer keepalive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.C():
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
			resetTimer(keepalive, KeepaliveInterval)
		case <-keepalive.C:
			fmt.Fprint(w, "event: keepalive\ndata: {}\n\n")
			flusher.Flush()
			keepalive.Reset(KeepaliveInterval)
		}
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	topics := []string{}
	if s.subs != nil {
		topics = s.subs.Topics()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dots":          s.dots.Len(),
		"processed":     s.tracker.Accepted(),
		"seen":          s.tracker.Seen(),
		"enabled_bands": s.cfg.Current().Bands(),
		"drops":         s.tracker.DropCounts(),
		"subscriptions": topics,
		"subscribers":   s.hub.SubscriberCount(),
	})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"recent": s.tracker.Recent()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("HTTP: encode response: %v", err)
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
