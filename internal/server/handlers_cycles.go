package server

import (
	"fmt"
	"net/http"

	"kyklos/internal/api"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
		return
	}

	resp, err := s.service.Dashboard(r.Context(), user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	resp.Username = user.Username

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggleDay(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
		return
	}
	dayID, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.CompletionRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	if err := s.service.ToggleDay(r.Context(), user.ID, dayID, req.Completed); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ActionResponse{Success: true})
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
		return
	}
	taskID, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	var req api.CompletionRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	if err := s.service.ToggleTask(r.Context(), user.ID, taskID, req.Completed); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.ActionResponse{Success: true})
}

func (s *Server) handleAdvanceCycle(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.writeErrorReq(w, r, http.StatusUnauthorized, unauthorized(fmt.Errorf("authentication required")))
		return
	}
	cycleID, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	newCycleID, err := s.service.Advance(r.Context(), user.ID, cycleID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.AdvanceResponse{Success: true, NewCycleID: newCycleID})
}
