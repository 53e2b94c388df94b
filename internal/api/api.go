// Package api exposes a session over HTTP: JSON controls, an event stream
// for the chart and file exports.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/session"
)

// Options wire the optional handlers and limits of a Server.
type Options struct {
	Events http.Handler // SSE event stream, mounted at /events
	Stream http.Handler // HTTP audio stream, mounted at /stream
	Offer  http.Handler // WebRTC signaling, mounted at /offer

	// Listeners reports how many audio listeners are connected.
	Listeners func() int

	// RefreshRate caps manual live refreshes per second. Zero disables the
	// limit.
	RefreshRate float64
	// Volume is the output level of exported WAV files.
	Volume float64
	// AllowedOrigins for CORS. Empty allows all.
	AllowedOrigins []string
}

// Server routes API requests to a session.
type Server struct {
	session *session.Session
	opts    Options
	refresh *rate.Limiter
	handler http.Handler
}

// New builds the router for s.
func New(s *session.Session, opts Options) *Server {
	srv := &Server{session: s, opts: opts}
	if opts.RefreshRate > 0 {
		srv.refresh = rate.NewLimiter(rate.Limit(opts.RefreshRate), 1)
	}

	router := mux.NewRouter().StrictSlash(true)
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/status", srv.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/options", srv.handleOptions).Methods(http.MethodGet)
	api.HandleFunc("/samples", srv.handleSamples).Methods(http.MethodGet)
	api.HandleFunc("/samples/{key}", srv.handleLoadSample).Methods(http.MethodPost)
	api.HandleFunc("/upload", srv.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/stats", srv.handleStats).Methods(http.MethodGet)

	api.HandleFunc("/play", srv.handlePlay).Methods(http.MethodPost)
	api.HandleFunc("/stop", srv.handleStop).Methods(http.MethodPost)
	api.HandleFunc("/toggle", srv.handleToggle).Methods(http.MethodPost)
	api.HandleFunc("/reset", srv.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/settings", srv.handleSettings).Methods(http.MethodPost)

	api.HandleFunc("/zoom/{action:in|out|reset}", srv.handleZoom).Methods(http.MethodPost)
	api.HandleFunc("/view", srv.handleView).Methods(http.MethodGet)
	api.HandleFunc("/hover", srv.handleHover).Methods(http.MethodGet)

	api.HandleFunc("/live/connect", srv.handleConnect).Methods(http.MethodPost)
	api.HandleFunc("/live/disconnect", srv.handleDisconnect).Methods(http.MethodPost)
	api.HandleFunc("/live/mode", srv.handleLiveMode).Methods(http.MethodPost)
	api.HandleFunc("/live/refresh", srv.handleRefresh).Methods(http.MethodPost)

	api.HandleFunc("/export.wav", srv.handleExportWAV).Methods(http.MethodGet)
	api.HandleFunc("/export.mid", srv.handleExportMIDI).Methods(http.MethodGet)

	if opts.Events != nil {
		router.Handle("/events", opts.Events).Methods(http.MethodGet)
	}
	if opts.Stream != nil {
		router.Handle("/stream", opts.Stream).Methods(http.MethodGet)
	}
	if opts.Offer != nil {
		router.Handle("/offer", opts.Offer).Methods(http.MethodPost)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	srv.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)
	return srv
}

func (srv *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	srv.handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Write response failed: %v", err)
	}
}

func writeOK(w http.ResponseWriter, fields map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeError responds with the error's status and its user-facing message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": apperr.Message(err)})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.WrapInput(err, "Invalid request")
	}
	return nil
}

// refreshDelay reports how long a manual refresh has to wait, zero when it may
// proceed now.
func (srv *Server) refreshDelay() time.Duration {
	if srv.refresh == nil {
		return 0
	}
	res := srv.refresh.Reserve()
	if d := res.Delay(); d > 0 {
		res.Cancel()
		return d
	}
	return 0
}
