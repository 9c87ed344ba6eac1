package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"git.home.luguber.info/inful/screenstore/internal/logfields"
	"git.home.luguber.info/inful/screenstore/internal/metrics"
	"git.home.luguber.info/inful/screenstore/internal/screens/bookmarks"
	"git.home.luguber.info/inful/screenstore/internal/screens/collections"
	"git.home.luguber.info/inful/screenstore/internal/screens/history"
	"git.home.luguber.info/inful/screenstore/internal/version"
)

// ScreenStatus summarizes one store.
type ScreenStatus struct {
	Name        string `json:"name"`
	Version     uint64 `json:"version"`
	Subscribers int    `json:"subscribers"`
	Mode        string `json:"mode,omitempty"`
	Closed      bool   `json:"closed"`
}

// StatusResponse is served on /status.
type StatusResponse struct {
	Status  Status         `json:"status"`
	Ready   bool           `json:"ready"`
	Session string         `json:"session"`
	Uptime  string         `json:"uptime"`
	Version string         `json:"version"`
	Screens []ScreenStatus `json:"screens"`
}

// Handler serves /metrics, /status and /healthz.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	path := d.Config().Metrics.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/status", d.handleStatus)
	mux.HandleFunc("/healthz", d.handleHealth)
	return mux
}

// StatusSnapshot reports the daemon and store state.
func (d *Daemon) StatusSnapshot() StatusResponse {
	var uptime string
	if !d.startTime.IsZero() {
		uptime = time.Since(d.startTime).Truncate(time.Second).String()
	}
	hs, bs, cs := d.History.State(), d.Bookmarks.State(), d.Collections.State()
	return StatusResponse{
		Status:  d.GetStatus(),
		Ready:   d.Ready(),
		Session: d.session,
		Uptime:  uptime,
		Version: version.Version,
		Screens: []ScreenStatus{
			{Name: history.Name, Version: d.History.Version(), Subscribers: d.History.SubscriberCount(), Mode: hs.Mode.Kind(), Closed: d.History.Closed()},
			{Name: bookmarks.Name, Version: d.Bookmarks.Version(), Subscribers: d.Bookmarks.SubscriberCount(), Mode: bs.Mode.Kind(), Closed: d.Bookmarks.Closed()},
			{Name: collections.Name, Version: d.Collections.Version(), Subscribers: d.Collections.SubscriberCount(), Mode: string(cs.Step), Closed: d.Collections.Closed()},
		},
	}
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, d.StatusSnapshot(), d)
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	code := http.StatusOK
	status := d.GetStatus()
	if status != StatusRunning {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "ready": d.Ready()}, d)
}

func writeJSON(w http.ResponseWriter, code int, body any, d *Daemon) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		d.logger.Warn("Failed to write response", logfields.Error(err))
	}
}
