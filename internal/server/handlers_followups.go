package server

import (
	"net/http"

	"github.com/jonathan/jobtrail/internal/followup"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
)

// DueFollowUp is a follow-up annotated with its relative due label.
type DueFollowUp struct {
	types.FollowUp
	Due string `json:"due"`
}

// SendResponse carries the sent follow-up and the message handed to the outbox.
type SendResponse struct {
	FollowUp *types.FollowUp `json:"follow_up"`
	Message  *types.Message  `json:"message"`
	Mailto   string          `json:"mailto"`
}

// MessageResponse carries a composed message and its mailto link.
type MessageResponse struct {
	*types.Message
	Mailto string `json:"mailto"`
}

func (s *Server) annotate(fus []types.FollowUp) []DueFollowUp {
	now := s.now()
	out := make([]DueFollowUp, len(fus))
	for i, fu := range fus {
		out[i] = DueFollowUp{FollowUp: fu, Due: followup.RelativeDue(fu.ScheduledDate, now)}
	}
	return out
}

func (s *Server) handleListFollowUps(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	var (
		filter store.FollowUpFilter
		err    error
	)
	for _, raw := range r.URL.Query()["status"] {
		status, err := types.ParseFollowUpStatus(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if filter.JobID, err = queryUUID(r, "job_id"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.ContactID, err = queryUUID(r, "contact_id"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}

	fus, err := s.svc.FollowUps.List(r.Context(), owner, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"follow_ups": fus, "count": len(fus)})
}

func (s *Server) handleOverdue(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	fus, err := s.svc.FollowUps.Overdue(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"follow_ups": s.annotate(fus), "count": len(fus)})
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	fus, err := s.svc.FollowUps.Upcoming(r.Context(), owner)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"follow_ups": s.annotate(fus), "count": len(fus)})
}

func (s *Server) handleRecentSent(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	fus, err := s.svc.FollowUps.RecentSent(r.Context(), owner, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"follow_ups": fus, "count": len(fus)})
}

func (s *Server) handleGetFollowUp(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	fu, err := s.svc.FollowUps.Get(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fu)
}

func (s *Server) handleMarkSent(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	var req types.MarkSentRequest
	if !s.decodeBody(w, r, &req, true) {
		return
	}
	fu, err := s.svc.FollowUps.MarkSent(r.Context(), owner, id, req.TemplateID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fu)
}

func (s *Server) handleSnooze(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	var req types.SnoozeRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}
	fu, err := s.svc.FollowUps.Snooze(r.Context(), owner, id, req.Days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fu)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	fu, err := s.svc.FollowUps.Dismiss(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fu)
}

func (s *Server) handleUnsnooze(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	fu, err := s.svc.FollowUps.Unsnooze(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, fu)
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	var req types.ComposeRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}
	if err := types.ValidateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}
	msg, err := s.svc.FollowUps.Compose(r.Context(), owner, id, req.TemplateID, req.Variables)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, MessageResponse{Message: msg, Mailto: msg.MailtoURI()})
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	var req types.ComposeRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}
	if err := types.ValidateStruct(&req); err != nil {
		s.writeError(w, r, err)
		return
	}
	fu, msg, err := s.svc.FollowUps.Send(r.Context(), owner, id, req.TemplateID, req.Variables)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SendResponse{FollowUp: fu, Message: msg, Mailto: msg.MailtoURI()})
}
