package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gorilla/mux"

	"github.com/satindergrewal/sonigraph/internal/apperr"
	"github.com/satindergrewal/sonigraph/internal/audio"
	"github.com/satindergrewal/sonigraph/internal/dataset"
	"github.com/satindergrewal/sonigraph/internal/export"
	"github.com/satindergrewal/sonigraph/internal/music"
	"github.com/satindergrewal/sonigraph/internal/session"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	session.Status
	Listeners int `json:"listeners"`
}

func (srv *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: srv.session.Status()}
	if srv.opts.Listeners != nil {
		resp.Listeners = srv.opts.Listeners()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (srv *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"scales":       music.ScaleNames(),
		"instruments":  audio.InstrumentNames(),
		"note_lengths": []string{"1n", "2n", "4n", "8n", "16n", "32n"},
		"zoom_levels":  []int{1, 2, 4, 8},
		"octaves":      []int{session.MinBaseOctave, session.MaxBaseOctave},
	})
}

// SampleInfo describes a bundled sample dataset.
type SampleInfo struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Points      int    `json:"points"`
}

func (srv *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	keys := dataset.SampleKeys()
	out := make([]SampleInfo, 0, len(keys))
	for _, k := range keys {
		s := dataset.Samples[k]
		out = append(out, SampleInfo{Key: k, Name: s.Name, Description: s.Description, Points: len(s.Values)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (srv *Server) handleLoadSample(w http.ResponseWriter, r *http.Request) {
	if err := srv.session.LoadSample(mux.Vars(r)["key"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"dataset": srv.session.Status().Dataset})
}

func (srv *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, dataset.MaxUploadSize)
	if err := r.ParseMultipartForm(dataset.MaxUploadSize); err != nil {
		writeError(w, r, apperr.WrapInput(err, "Upload must be a CSV or JSON file under 10MB"))
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, apperr.WrapInput(err, "No file uploaded"))
		return
	}
	defer f.Close()

	if err := srv.session.LoadUpload(header.Filename, f); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"dataset": srv.session.Status().Dataset})
}

func (srv *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.session.Stats())
}

func (srv *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := srv.session.Play(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"playing": true})
}

func (srv *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	srv.session.Stop()
	writeOK(w, map[string]any{"playing": false})
}

func (srv *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	playing, err := srv.session.Toggle(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"playing": playing})
}

func (srv *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	srv.session.Reset()
	writeOK(w, nil)
}

// SettingsRequest changes any subset of the sound settings.
type SettingsRequest struct {
	Tempo      *int    `json:"tempo"`
	Scale      *string `json:"scale"`
	Instrument *string `json:"instrument"`
	BaseOctave *int    `json:"base_octave"`
	NoteLength *string `json:"note_length"`
}

func (srv *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	err := srv.session.UpdateSettings(session.SettingsUpdate{
		Tempo:      req.Tempo,
		Scale:      req.Scale,
		Instrument: req.Instrument,
		BaseOctave: req.BaseOctave,
		NoteLength: req.NoteLength,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"settings": srv.session.Status().Settings})
}

func (srv *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	var level int
	switch mux.Vars(r)["action"] {
	case "in":
		level = srv.session.ZoomIn()
	case "out":
		level = srv.session.ZoomOut()
	default:
		level = srv.session.ResetZoom()
	}
	writeOK(w, map[string]any{"zoom": level, "range": music.RangeDescription(level)})
}

func (srv *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.session.View())
}

func (srv *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	rel, err := strconv.Atoi(r.URL.Query().Get("index"))
	if err != nil {
		writeError(w, r, apperr.Input("index must be an integer"))
		return
	}
	info, err := srv.session.Hover(rel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (srv *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if err := srv.session.ConnectLive(r.Context(), strings.ToUpper(strings.TrimSpace(req.Symbol))); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"live": srv.session.Status().Live})
}

func (srv *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	srv.session.Disconnect()
	writeOK(w, nil)
}

func (srv *Server) handleLiveMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := srv.session.SetLiveMode(req.Enabled); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"mode": req.Enabled})
}

func (srv *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if d := srv.refreshDelay(); d > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{"ok": false, "error": "Refreshing too often, try again shortly"})
		return
	}
	if err := srv.session.RefreshLive(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"live": srv.session.Status().Live})
}

func (srv *Server) handleExportWAV(w http.ResponseWriter, r *http.Request) {
	values, opts, err := srv.session.ExportOptions(srv.opts.Volume)
	if err != nil {
		writeError(w, r, err)
		return
	}

	f, err := os.CreateTemp("", "sonigraph-*.wav")
	if err != nil {
		writeError(w, r, fmt.Errorf("create temp file: %w", err))
		return
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if _, err := export.WriteWAV(f, values, opts); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := f.Seek(0, 0); err != nil {
		writeError(w, r, fmt.Errorf("rewind wav: %w", err))
		return
	}

	name := fileName(opts.Name) + ".wav"
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Type", "audio/wav")
	http.ServeContent(w, r, name, time.Now(), f)
}

func (srv *Server) handleExportMIDI(w http.ResponseWriter, r *http.Request) {
	values, opts, err := srv.session.ExportOptions(srv.opts.Volume)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if _, err := export.WriteMIDI(&buf, values, opts); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.mid"`, fileName(opts.Name)))
	w.Header().Set("Content-Type", "audio/midi")
	w.Write(buf.Bytes())
}

// fileName turns a dataset name into a safe download name.
func fileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			return unicode.ToLower(r)
		case unicode.IsSpace(r), r == '.':
			return '-'
		}
		return -1
	}, name)
	name = strings.Trim(name, "-")
	if name == "" {
		return "sonigraph"
	}
	return name
}
