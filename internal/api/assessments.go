package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/email"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
)

// ─── SHARED ───────────────────────────────────────────────────────────────────

func (s *Server) shareURL(code string) string {
	return s.cfg.BaseURL + "/r/" + url.PathEscape(code)
}

func (s *Server) assessmentURL(token string) string {
	return s.cfg.BaseURL + "/assessment/" + url.PathEscape(token)
}

// resolve loads the assessment named by the {ref} URL param. It writes the
// error response and returns false when the lookup fails.
func (s *Server) resolve(w http.ResponseWriter, r *http.Request) (db.Assessment, bool) {
	a, err := s.store.Resolve(r.Context(), chi.URLParam(r, "ref"))
	if errors.Is(err, store.ErrNotFound) {
		respondNotFound(w)
		return db.Assessment{}, false
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("resolve assessment: %w", err))
		return db.Assessment{}, false
	}
	return a, true
}

// sendLink emails the questionnaire link. Failures are logged only.
func (s *Server) sendLink(r *http.Request, a db.Assessment) {
	err := s.mailer.SendAssessmentLink(r.Context(), email.LinkParams{
		To:       a.Email,
		Name:     a.Name,
		Company:  a.Company,
		ShareURL: s.shareURL(a.ShortCode),
	})
	s.logAndIgnoreEmailErr(r, err, "send assessment link")
}

// ─── POST /api/assessments ────────────────────────────────────────────────────

type createAssessmentRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

type createAssessmentResponse struct {
	Token     string           `json:"token"`
	ShortCode string           `json:"short_code"`
	Status    lifecycle.Status `json:"status"`
	ShareURL  string           `json:"share_url"`
}

// handleCreateAssessment is the free demo intake. It creates a not_started
// assessment and emails the link.
func (s *Server) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	var req createAssessmentRequest
	if !decode(w, r, &req) {
		return
	}

	a, err := s.store.CreateAssessment(r.Context(), store.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
	}, db.AssessmentSourceDemo, "")
	if err != nil {
		s.respondDomainErr(w, r, err)
		return
	}

	s.logger.Info("intake: assessment created",
		"assessment_id", a.ID,
		"short_code", a.ShortCode,
		"source", a.Source,
		logField(r),
	)
	s.sendLink(r, a)

	respond(w, http.StatusCreated, createAssessmentResponse{
		Token:     a.Token,
		ShortCode: a.ShortCode,
		Status:    lifecycle.Status(a.Status),
		ShareURL:  s.shareURL(a.ShortCode),
	})
}

// ─── GET /api/assessments/:ref ────────────────────────────────────────────────

type assessmentResponse struct {
	Token       string            `json:"token"`
	ShortCode   string            `json:"short_code"`
	Name        string            `json:"name"`
	Company     string            `json:"company"`
	Status      lifecycle.Status  `json:"status"`
	CurrentStep int32             `json:"current_step"`
	StepCount   int               `json:"step_count"`
	Responses   scoring.Responses `json:"responses"`
	Editable    bool              `json:"editable"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
}

func (s *Server) toAssessmentResponse(a db.Assessment) (assessmentResponse, error) {
	responses, err := store.Responses(a)
	if err != nil {
		return assessmentResponse{}, err
	}
	status := lifecycle.Status(a.Status)
	resp := assessmentResponse{
		Token:       a.Token,
		ShortCode:   a.ShortCode,
		Name:        a.Name,
		Company:     a.Company,
		Status:      status,
		CurrentStep: a.CurrentStep,
		StepCount:   s.catalog.StepCount(),
		Responses:   responses,
		Editable:    status == lifecycle.StatusNotStarted || status == lifecycle.StatusInProgress,
	}
	if a.SubmittedAt.Valid {
		t := a.SubmittedAt.Time
		resp.SubmittedAt = &t
	}
	return resp, nil
}

func (s *Server) respondAssessment(w http.ResponseWriter, r *http.Request, status int, a db.Assessment) {
	resp, err := s.toAssessmentResponse(a)
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, status, resp)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}
	s.respondAssessment(w, r, http.StatusOK, a)
}

// ─── PUT /api/assessments/:ref/responses ──────────────────────────────────────

type saveResponsesRequest struct {
	Responses   scoring.Responses `json:"responses"`
	CurrentStep int               `json:"current_step"`
}

// handleSaveResponses merges a partial set of answers. Called on every step
// change so progress survives a closed tab.
func (s *Server) handleSaveResponses(w http.ResponseWriter, r *http.Request) {
	var req saveResponsesRequest
	if !decode(w, r, &req) {
		return
	}
	// Unknown ids are dropped rather than rejected so an older frontend does
	// not lose the whole save.
	for id := range req.Responses {
		if _, known := s.catalog.Question(id); !known {
			delete(req.Responses, id)
		}
	}
	if req.CurrentStep > s.catalog.StepCount() {
		respondErr(w, http.StatusBadRequest, "current_step out of range")
		return
	}

	a, ok := s.resolve(w, r)
	if !ok {
		return
	}

	a, err := s.store.SaveResponses(r.Context(), a.ID, req.Responses, req.CurrentStep)
	if err != nil {
		s.respondDomainErr(w, r, err)
		return
	}
	s.respondAssessment(w, r, http.StatusOK, a)
}

// ─── POST /api/assessments/:ref/submit ────────────────────────────────────────

// handleSubmitAssessment scores the answers and queues a draft narrative for
// admin review. The respondent does not see scores until release.
func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}

	a, err := s.store.SubmitAssessment(r.Context(), a.ID)
	if err != nil {
		s.respondDomainErr(w, r, err)
		return
	}

	if err := s.worker.Enqueue(r.Context(), a.ID); err != nil {
		// Queue full; the poller will pick it up.
		s.logger.Warn("submit: enqueue failed, will be picked up by poller",
			"assessment_id", a.ID,
			"error", err,
			logField(r),
		)
	}

	s.logger.Info("submit: assessment scored", "assessment_id", a.ID, logField(r))
	s.respondAssessment(w, r, http.StatusOK, a)
}

// ─── GET /api/assessments/:ref/report ─────────────────────────────────────────

// handleGetReport serves the released report. Until release, or if the
// stored report cannot be decoded, it answers 202 with the preparing
// placeholder so the frontend can poll.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	a, ok := s.resolve(w, r)
	if !ok {
		return
	}

	status := lifecycle.Status(a.Status)
	in, err := store.ReportInput(a)
	if err != nil {
		s.logger.Error("report: decode failed, serving placeholder",
			"assessment_id", a.ID,
			"error", err,
			logField(r),
		)
		respond(w, http.StatusAccepted, report.Placeholder(status))
		return
	}

	view := report.Assemble(in)
	if !view.Ready {
		respond(w, http.StatusAccepted, view)
		return
	}
	respond(w, http.StatusOK, view)
}

// ─── GET /r/:code ─────────────────────────────────────────────────────────────

// handleShortLink redirects a share link to the frontend questionnaire. The
// path segment may be a short code or, for older links, the raw token.
func (s *Server) handleShortLink(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.Resolve(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, store.ErrNotFound) {
		respondNotFound(w)
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("resolve short link: %w", err))
		return
	}

	http.Redirect(w, r, s.assessmentURL(a.Token), http.StatusFound)
}
