package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"trackerbot/internal/journal"
	"trackerbot/internal/net/ws"
	"trackerbot/internal/observability"
	"trackerbot/internal/telemetry"
	"trackerbot/logging"
)

// RouterStats is satisfied by *logging.Router.
type RouterStats interface {
	Stats() logging.RouterStats
}

type HTTPHandlerConfig struct {
	Journal  *journal.Journal
	Metrics  *logging.Metrics
	Router   RouterStats
	Schema   func() ([]byte, error)
	TickRate int
	Logger   telemetry.Logger

	Observability observability.Config
}

func NewHTTPHandler(hub *ws.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}

		payload := struct {
			Status       string            `json:"status"`
			ServerTime   int64             `json:"serverTime"`
			TickRate     int               `json:"tickRate"`
			LastSequence uint64            `json:"lastSequence"`
			Observers    []ws.ObserverInfo `json:"observers"`
			Keyframes    []keyframeInfo    `json:"keyframes"`
			Telemetry    map[string]uint64 `json:"telemetry"`
			Logging      *routerStats      `json:"logging,omitempty"`
		}{
			Status:       "ok",
			ServerTime:   time.Now().UnixMilli(),
			TickRate:     cfg.TickRate,
			LastSequence: hub.LastSequence(),
			Observers:    hub.Observers(),
			Keyframes:    keyframeSummary(cfg.Journal),
			Telemetry:    cfg.Metrics.Snapshot(),
		}
		if cfg.Router != nil {
			stats := cfg.Router.Stats()
			payload.Logging = &routerStats{Events: stats.EventsTotal, Dropped: stats.DroppedTotal}
		}

		writeJSON(w, logger, payload)
	})

	mux.HandleFunc("/frame", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Journal == nil {
			httpError(w, "no frames yet", nethttp.StatusNotFound)
			return
		}
		latest, ok := cfg.Journal.Latest()
		if !ok {
			httpError(w, "no frames yet", nethttp.StatusNotFound)
			return
		}
		frame := latest.Frame
		frame.Resync = true
		writeJSON(w, logger, frame)
	})

	mux.HandleFunc("/schema", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodGet {
			httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
			return
		}
		if cfg.Schema == nil {
			httpError(w, "schema unavailable", nethttp.StatusNotFound)
			return
		}
		data, err := cfg.Schema()
		if err != nil {
			logger.Printf("[http] failed to build schema: %v", err)
			httpError(w, "failed to build schema", nethttp.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/schema+json")
		w.Write(data)
	})

	mux.HandleFunc("/ws", hub.Handle)
	if cfg.Observability.Register(mux) {
		logger.Printf("[http] profiling endpoints enabled under /debug/pprof/")
	}

	return mux
}

type keyframeInfo struct {
	Sequence   uint64 `json:"sequence"`
	Tick       uint64 `json:"tick"`
	RecordedAt int64  `json:"recordedAt"`
}

type routerStats struct {
	Events  uint64 `json:"events"`
	Dropped uint64 `json:"dropped"`
}

func keyframeSummary(j *journal.Journal) []keyframeInfo {
	if j == nil {
		return nil
	}
	frames := j.Keyframes()
	out := make([]keyframeInfo, 0, len(frames))
	for _, frame := range frames {
		out = append(out, keyframeInfo{
			Sequence:   frame.Sequence,
			Tick:       frame.Tick,
			RecordedAt: frame.RecordedAt.UnixMilli(),
		})
	}
	return out
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("[http] failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
