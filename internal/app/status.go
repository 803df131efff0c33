package app

import (
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/MahdiBaghbani/containers-sub001/internal/orchestrator"
)

// statusMux serves the live run summary. /health answers OK for liveness
// probes; /status renders the orchestrator snapshot as JSON.
func (a *App) statusMux(snapshot func() orchestrator.Summary) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snapshot()); err != nil {
			a.logger.Error("Writing status response failed.", "error", err)
		}
	})
	return mux
}

// startStatusServer runs the status HTTP server for the duration of the
// process. Builds are long; the server simply dies with the process.
func (a *App) startStatusServer(port int, snapshot func() orchestrator.Summary) {
	a.logger.Debug("Configuring status server.")
	addr := fmt.Sprintf(":%d", port)

	go func() {
		a.logger.Info("🩺 Status server starting", "address", fmt.Sprintf("http://localhost%s/status", addr))
		if err := http.ListenAndServe(addr, a.statusMux(snapshot)); err != nil {
			a.logger.Error("Status server failed", "error", err)
		}
	}()
}
