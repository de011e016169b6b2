package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	report, err := s.svc.Analytics.Report(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}

// handleExport streams the owner's snapshot as a JSON attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	data, err := s.svc.Snapshot.ExportJSON(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("jobtrail-export-%s.json", s.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("failed to write export")
	}
}

// handleImport takes the raw snapshot document as the request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "snapshot too large")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.svc.Snapshot.ImportJSON(r.Context(), owner, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, result)
}
