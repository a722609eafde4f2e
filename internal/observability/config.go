package observability

import (
	nethttp "net/http"
	"net/http/pprof"
)

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	EnablePprof bool `json:"enablePprof" yaml:"enablePprof"`
}

// Register mounts the runtime profiling endpoints under /debug/pprof/ when
// enabled and reports whether it did.
func (c Config) Register(mux *nethttp.ServeMux) bool {
	if !c.EnablePprof || mux == nil {
		return false
	}
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return true
}
