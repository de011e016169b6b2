package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/templates"
	"github.com/jonathan/jobtrail/internal/types"
)

// LintResponse reports placeholder drift for one template.
type LintResponse struct {
	TemplateID uuid.UUID `json:"template_id"`
	Clean      bool      `json:"clean"`
	templates.LintReport
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	var typ *types.TemplateType
	if raw := r.URL.Query().Get("type"); raw != "" {
		t, err := types.ParseTemplateType(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		typ = &t
	}

	list, err := s.svc.Templates.List(r.Context(), owner, typ)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"templates": list, "count": len(list)})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	var req types.CreateTemplateRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}
	t, err := s.svc.Templates.Create(r.Context(), owner, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, t)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	t, err := s.svc.Templates.Get(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	var req types.UpdateTemplateRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}
	t, err := s.svc.Templates.Update(r.Context(), owner, id, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Templates.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSaveDefaults(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	saved, err := s.svc.Templates.SaveDefaults(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"templates": saved, "count": len(saved)})
}

func (s *Server) handleRenderTemplate(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	var req types.RenderRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}
	rendered, err := s.svc.Templates.RenderRequest(r.Context(), owner, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rendered)
}

func (s *Server) handleLintTemplate(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	t, err := s.svc.Templates.Get(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report := templates.Lint(t)
	s.jsonResponse(w, http.StatusOK, LintResponse{TemplateID: t.ID, Clean: report.Clean(), LintReport: report})
}
