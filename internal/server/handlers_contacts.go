package server

import (
	"net/http"

	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
)

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	var (
		filter store.ContactFilter
		err    error
	)
	if filter.CompanyChanged, err = queryBool(r, "company_changed"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}

	contacts, err := s.svc.Contacts.List(r.Context(), owner, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"contacts": contacts, "count": len(contacts)})
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	var req types.CreateContactRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	contact, err := s.svc.Contacts.Create(r.Context(), owner, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, contact)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	contact, err := s.svc.Contacts.Get(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, contact)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	var req types.UpdateContactRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	contact, err := s.svc.Contacts.Update(r.Context(), owner, id, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, contact)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Contacts.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfirmCompany(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	contact, err := s.svc.Contacts.ConfirmCompany(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, contact)
}

func (s *Server) handleDetectMovement(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	var req types.MovementCheckRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}
	if err := types.ValidateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}
	concurrency := req.Concurrency
	if concurrency == 0 {
		concurrency = s.movementConcurrency
	}

	alerts, err := s.svc.Contacts.DetectExternalMovement(r.Context(), owner, req.ContactIDs, concurrency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"alerts": alerts, "checked": len(req.ContactIDs)})
}
