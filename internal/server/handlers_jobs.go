package server

import (
	"net/http"

	"github.com/jonathan/jobtrail/internal/ingestion"
	"github.com/jonathan/jobtrail/internal/store"
	"github.com/jonathan/jobtrail/internal/types"
)

// JobResponse returns a job together with the follow-up the write created, if any.
type JobResponse struct {
	Job      *types.Job      `json:"job"`
	FollowUp *types.FollowUp `json:"follow_up,omitempty"`
}

// ImportEmailResponse adds the raw extraction to JobResponse.
type ImportEmailResponse struct {
	JobResponse
	Extracted ingestion.ExtractedJob `json:"extracted"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}

	var filter store.JobFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := types.ParseJobStatus(raw)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Status = &status
	}
	contactID, err := queryUUID(r, "contact_id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	filter.ContactID = contactID
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		s.writeError(w, r, err)
		return
	}

	jobs, err := s.svc.Pipeline.ListJobs(r.Context(), owner, filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	var req types.CreateJobRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	job, fu, err := s.svc.Pipeline.CreateJob(r.Context(), owner, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, JobResponse{Job: job, FollowUp: fu})
}

func (s *Server) handleImportEmail(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.ownerID(w, r)
	if !ok {
		return
	}
	var req types.ImportEmailRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	job, fu, extracted, err := s.svc.Pipeline.ImportFromEmail(r.Context(), owner, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, ImportEmailResponse{
		JobResponse: JobResponse{Job: job, FollowUp: fu},
		Extracted:   extracted,
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	job, err := s.svc.Pipeline.GetJob(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	var req types.UpdateJobRequest
	if !s.decodeBody(w, r, &req, false) {
		return
	}

	job, err := s.svc.Pipeline.UpdateJob(r.Context(), owner, id, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	owner, id, ok := s.ownerAndID(w, r)
	if !ok {
		return
	}
	if err := s.svc.Pipeline.DeleteJob(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
