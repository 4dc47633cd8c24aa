package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/conneroisu/minplay/internal/version"
)

//go:embed static/index.html
var indexHTML []byte

// EditRequest is the body of POST /api/source and POST /api/options.
type EditRequest struct {
	Text *string `json:"text"`
}

// EditResponse reports the session after an edit.
type EditResponse struct {
	// OK is false when an options edit did not parse.
	OK   bool `json:"ok"`
	View View `json:"view"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.view())
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeEdit(w, r)
	if !ok {
		return
	}
	s.ctrl.OnSourceChanged(text)
	s.writeJSONResponse(w, http.StatusOK, EditResponse{OK: true, View: s.view()})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeEdit(w, r)
	if !ok {
		return
	}
	outcome := s.ctrl.OnOptionsTextChanged(text)
	s.writeJSONResponse(w, http.StatusOK, EditResponse{OK: outcome.OK, View: s.view()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.ctrl.Snapshot()
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     version.GetShortVersion(),
		"phase":       st.Phase.String(),
		"evaluations": st.Evaluations,
		"clients":     s.hub.Clients(),
	})
}

func (s *Server) view() View {
	return NewView(s.ctrl.Snapshot(), s.cfg.Editor)
}

// decodeEdit reads an EditRequest, writing the error response itself when
// the body is unusable.
func (s *Server) decodeEdit(w http.ResponseWriter, r *http.Request) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes)

	var req EditRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSONResponse(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return "", false
		}
		s.writeJSONResponse(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return "", false
	}
	if req.Text == nil {
		s.writeJSONResponse(w, http.StatusBadRequest, ErrorResponse{Error: `missing "text" field`})
		return "", false
	}
	return *req.Text, true
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error(context.Background(), err, "Failed to encode JSON response")
	}
}
