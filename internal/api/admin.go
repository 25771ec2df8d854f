package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
	"github.com/nyashahama/ops-diagnostic-backend/internal/email"
	"github.com/nyashahama/ops-diagnostic-backend/internal/lifecycle"
	"github.com/nyashahama/ops-diagnostic-backend/internal/report"
	"github.com/nyashahama/ops-diagnostic-backend/internal/scoring"
	"github.com/nyashahama/ops-diagnostic-backend/internal/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// ─── RESPONSE SHAPES ─────────────────────────────────────────────────────────

type adminSummary struct {
	ID           uuid.UUID           `json:"id"`
	ShortCode    string              `json:"short_code"`
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Company      string              `json:"company"`
	Source       db.AssessmentSource `json:"source"`
	Status       lifecycle.Status    `json:"status"`
	TotalScore   *int                `json:"total_score,omitempty"`
	Band         scoring.Band        `json:"band,omitempty"`
	HasNarrative bool                `json:"has_narrative"`
	SubmittedAt  *time.Time          `json:"submitted_at,omitempty"`
	ReleasedAt   *time.Time          `json:"released_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

type adminDetail struct {
	adminSummary
	Token             string             `json:"token"`
	CurrentStep       int32              `json:"current_step"`
	Responses         scoring.Responses  `json:"responses"`
	Scores            *scoring.Scorecard `json:"scores,omitempty"`
	Narrative         *report.Narrative  `json:"narrative,omitempty"`
	ManualInsights    []report.Insight   `json:"manual_insights"`
	ExecutiveOverride string             `json:"executive_override,omitempty"`
	Preview           report.View        `json:"preview"`
}

type adminListResponse struct {
	Items  []adminSummary `json:"items"`
	Total  int64          `json:"total"`
	Limit  int32          `json:"limit"`
	Offset int32          `json:"offset"`
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func toAdminSummary(a db.Assessment) (adminSummary, error) {
	sc, err := store.Scores(a)
	if err != nil {
		return adminSummary{}, err
	}
	out := adminSummary{
		ID:           a.ID,
		ShortCode:    a.ShortCode,
		Name:         a.Name,
		Email:        a.Email,
		Company:      a.Company,
		Source:       a.Source,
		Status:       lifecycle.Status(a.Status),
		HasNarrative: a.Narrative.Valid && len(a.Narrative.RawMessage) > 0,
		SubmittedAt:  nullTimePtr(a.SubmittedAt),
		ReleasedAt:   nullTimePtr(a.ReleasedAt),
		CreatedAt:    a.CreatedAt,
	}
	if sc != nil {
		total := sc.TotalScore
		out.TotalScore = &total
		out.Band = sc.Band
	}
	return out, nil
}

func toAdminDetail(a db.Assessment) (adminDetail, error) {
	summary, err := toAdminSummary(a)
	if err != nil {
		return adminDetail{}, err
	}
	responses, err := store.Responses(a)
	if err != nil {
		return adminDetail{}, err
	}
	in, err := store.ReportInput(a)
	if err != nil {
		return adminDetail{}, err
	}
	return adminDetail{
		adminSummary:      summary,
		Token:             a.Token,
		CurrentStep:       a.CurrentStep,
		Responses:         responses,
		Scores:            in.Scores,
		Narrative:         in.Narrative,
		ManualInsights:    in.ManualInsights,
		ExecutiveOverride: in.ExecutiveOverride,
		Preview:           report.AssembleForAdmin(in),
	}, nil
}

func (s *Server) respondAdminDetail(w http.ResponseWriter, r *http.Request, a db.Assessment) {
	d, err := toAdminDetail(a)
	if err != nil {
		s.respondInternalErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, d)
}

// adminID parses the {id} URL param, writing 400 on failure.
func adminID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid assessment id")
		return uuid.Nil, false
	}
	return id, true
}

// ─── GET /api/admin/assessments ───────────────────────────────────────────────

func (s *Server) handleAdminListAssessments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var status sql.NullString
	if raw := q.Get("status"); raw != "" {
		if !lifecycle.Status(raw).Valid() {
			respondErr(w, http.StatusBadRequest, "unknown status")
			return
		}
		status = sql.NullString{String: raw, Valid: true}
	}

	limit, ok := queryInt(w, q.Get("limit"), defaultListLimit, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, q.Get("offset"), 0, "offset")
	if !ok {
		return
	}
	limit = min(max(limit, 1), maxListLimit)
	offset = max(offset, 0)

	rows, err := s.q.ListAssessments(r.Context(), db.ListAssessmentsParams{
		Status: status,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list assessments: %w", err))
		return
	}
	total, err := s.q.CountAssessments(r.Context(), status)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("count assessments: %w", err))
		return
	}

	items := make([]adminSummary, 0, len(rows))
	for _, a := range rows {
		sum, err := toAdminSummary(a)
		if err != nil {
			s.respondInternalErr(w, r, err)
			return
		}
		items = append(items, sum)
	}

	respond(w, http.StatusOK, adminListResponse{
		Items:  items,
		Total:  total,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
}

func queryInt(w http.ResponseWriter, raw string, def int, name string) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondErr(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return n, true
}

// ─── GET /api/admin/assessments/:id ───────────────────────────────────────────

func (s *Server) handleAdminGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := adminID(w, r)
	if !ok {
		return
	}
	a, err := s.q.GetAssessmentByID(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		respondNotFound(w)
		return
	}
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("get assessment: %w", err))
		return
	}
	s.respondAdminDetail(w, r, a)
}

// ─── POST /api/admin/assessments/:id/narrative ────────────────────────────────

// handleAdminGenerateNarrative regenerates the narrative synchronously.
// A generation already in flight for the same assessment answers 409.
func (s *Server) handleAdminGenerateNarrative(w http.ResponseWriter, r *http.Request) {
	id, ok := adminID(w, r)
	if !ok {
		return
	}
	a, err := s.narratives.Generate(r.Context(), id, true)
	if err != nil {
		s.respondDomainErr(w, r, err)
		return
	}
	s.logger.Info("admin: narrative regenerated", "assessment_id", id, logField(r))
	s.respondAdminDetail(w, r, a)
}

// ─── PUT /api/admin/assessments/:id/insights ──────────────────────────────────

type setInsightsRequest struct {
	Insights []report.Insight `json:"insights"`
}

func (s *Server) handleAdminSetInsights(w http.ResponseWriter, r *http.Request) {
	id, ok := adminID(w, r)
	if !ok {
		return
	}
	var req setInsightsRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := s.store.SetManualInsights(r.Context(), id, req.Insights)
	if err != nil {
		s.respondDomainErr(w, r, err)
		return
	}
	s.respondAdminDetail(w, r, a)
}

// ─── PUT /api/admin/assessments/:id/override ──────────────────────────────────

type setOverrideRequest struct {
	ExecutiveOverride string `json:"executive_override"`
}

func (s *Server) handleAdminSetOverride(w http.ResponseWriter, r *http.Request) {
	id, ok := adminID(w, r)
	if !ok {
		return
	}
	var req setOverrideRequest
	if !decode(w, r, &req) {
		return
	}
	a, err := s.store.SetExecutiveOverride(r.Context(), id, req.ExecutiveOverride)
	if err != nil {
		s.respondDomainErr(w, r, err)
		return
	}
	s.respondAdminDetail(w, r, a)
}

// ─── POST /api/admin/assessments/:id/release ──────────────────────────────────

// handleAdminRelease makes the report visible to the respondent and emails
// them the link. A narrative must exist first.
func (s *Server) handleAdminRelease(w http.ResponseWriter, r *http.Request) {
	id, ok := adminID(w, r)
	if !ok {
		return
	}
	a, err := s.store.ReleaseAssessment(r.Context(), id)
	if err != nil {
		s.respondDomainErr(w, r, err)
		return
	}

	s.logger.Info("admin: report released", "assessment_id", id, logField(r))
	mailErr := s.mailer.SendReportReleased(r.Context(), email.ReleasedParams{
		To:        a.Email,
		Name:      a.Name,
		Company:   a.Company,
		ReportURL: s.assessmentURL(a.Token) + "/report",
	})
	s.logAndIgnoreEmailErr(r, mailErr, "send report released")

	s.respondAdminDetail(w, r, a)
}
