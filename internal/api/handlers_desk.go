package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/readaloud/internal/session"
	"github.com/dgallion1/readaloud/internal/speech"
)

func (s *Server) handleDeskStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.desk.Status())
}

func (s *Server) handleDeskText(w http.ResponseWriter, r *http.Request) {
	view, err := s.desk.Page()
	if err != nil {
		deskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGoToPage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page int `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.deskAction(w, s.desk.GoToPage(req.Page))
}

func (s *Server) handleNextPage(w http.ResponseWriter, r *http.Request) {
	s.deskAction(w, s.desk.NextPage())
}

func (s *Server) handlePrevPage(w http.ResponseWriter, r *http.Request) {
	s.deskAction(w, s.desk.PrevPage())
}

func (s *Server) handleReadStart(w http.ResponseWriter, r *http.Request) {
	s.deskAction(w, s.desk.StartReading())
}

func (s *Server) handleReadStop(w http.ResponseWriter, r *http.Request) {
	s.desk.StopReading()
	s.deskAction(w, nil)
}

func (s *Server) handleReadPause(w http.ResponseWriter, r *http.Request) {
	if !s.desk.Pause() {
		jsonError(w, "not reading", http.StatusConflict)
		return
	}
	s.deskAction(w, nil)
}

func (s *Server) handleReadResume(w http.ResponseWriter, r *http.Request) {
	if !s.desk.Resume() {
		jsonError(w, "not paused", http.StatusConflict)
		return
	}
	s.deskAction(w, nil)
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.desk.Speak(req.Text); err != nil {
		deskError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"speaking": true})
}

// deskAction responds with the desk status, or the mapped error.
func (s *Server) deskAction(w http.ResponseWriter, err error) {
	if err != nil {
		deskError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.desk.Status())
}

func deskError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoDocument), errors.Is(err, session.ErrNotStarted):
		code = http.StatusConflict
	case errors.Is(err, session.ErrPageRange), errors.Is(err, speech.ErrEmptyText):
		code = http.StatusBadRequest
	case errors.Is(err, speech.ErrUnsupported), errors.Is(err, speech.ErrNoClient), errors.Is(err, speech.ErrBusy):
		code = http.StatusServiceUnavailable
	}
	jsonError(w, err.Error(), code)
}
