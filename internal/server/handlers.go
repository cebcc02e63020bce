package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/auditai-dev/auditai/internal/auditlog"
	"github.com/auditai-dev/auditai/internal/compliance"
	"github.com/auditai-dev/auditai/internal/fraud"
	"github.com/auditai-dev/auditai/internal/logger"
	"github.com/auditai-dev/auditai/internal/model"
	"github.com/auditai-dev/auditai/internal/report"
	"github.com/auditai-dev/auditai/internal/session"
	"github.com/auditai-dev/auditai/internal/tools"
)

const maxQuestionBytes = 4 << 10

type datasetResponse struct {
	SessionID string           `json:"session_id"`
	Source    string           `json:"source"`
	Columns   []string         `json:"columns"`
	Rows      int              `json:"rows"`
	Preview   []map[string]any `json:"preview,omitempty"`
	RulesErr  string           `json:"rules_error,omitempty"`
}

type fraudResponse struct {
	SessionID   string          `json:"session_id"`
	Summary     string          `json:"summary"`
	AmountField string          `json:"amount_field"`
	Stats       *fraud.Stats    `json:"stats"`
	Flagged     []fraud.RowFlag `json:"flagged"`
}

type complianceResponse struct {
	SessionID    string                 `json:"session_id"`
	Summary      string                 `json:"summary"`
	RuleCount    int                    `json:"rule_count"`
	Violations   int                    `json:"violations"`
	NonCompliant []compliance.RowResult `json:"non_compliant"`
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	if r.ContentLength > s.opts.MaxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", s.opts.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds %d bytes", s.opts.MaxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with a 'file' field")
		return
	}

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form with a 'file' field")
		return
	}
	defer file.Close()

	name := filepath.Base(hdr.Filename)
	parser, err := s.parsers.ForFile(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ds, err := parser.Parse(file)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("parse failed")
		writeError(w, http.StatusBadRequest, fmt.Sprintf("could not read %s: %v", name, err))
		return
	}

	rules, rulesErr := s.opts.Rules()
	if rulesErr != nil {
		log.Warn().Err(rulesErr).Msg("compliance rules unavailable")
	}
	sess := session.New(name, ds, rules, rulesErr)
	s.sessions.Put(sess)
	log.Info().Str("session", sess.ID).Str("file", name).Int("rows", ds.Len()).Msg("dataset uploaded")

	writeJSON(w, http.StatusCreated, s.describe(sess, 0))
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.describe(sess, s.opts.PreviewRows))
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFraud(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	a := fraud.Detect(sess.Dataset)
	summary := report.FraudSummary(sess.Dataset, a, s.opts.CurrencySymbol)
	s.audit(r, sess, auditlog.ActionFraud, summary)

	writeJSON(w, http.StatusOK, fraudResponse{
		SessionID:   sess.ID,
		Summary:     summary,
		AmountField: a.AmountField,
		Stats:       a.Stats,
		Flagged:     nonNil(a.Flagged()),
	})
}

func (s *Server) handleCompliance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if sess.RulesErr != nil {
		writeError(w, http.StatusInternalServerError, "loading compliance rules: "+sess.RulesErr.Error())
		return
	}
	rep, err := compliance.Evaluate(sess.Dataset, sess.Rules)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	summary := report.ComplianceSummary(rep)
	s.audit(r, sess, auditlog.ActionCompliance, summary)

	writeJSON(w, http.StatusOK, complianceResponse{
		SessionID:    sess.ID,
		Summary:      summary,
		RuleCount:    rep.RuleCount,
		Violations:   rep.TotalViolations(),
		NonCompliant: nonNil(rep.NonCompliant()),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if s.opts.Agent == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant is not configured")
		return
	}

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "expected JSON body {\"question\": ...}")
		return
	}
	question := strings.TrimSpace(report.SanitizeText(req.Question))
	if question == "" {
		writeError(w, http.StatusBadRequest, "question is empty")
		return
	}

	reg := tools.ForSession(sess, tools.Options{CurrencySymbol: s.opts.CurrencySymbol})
	answer, err := s.opts.Agent.Ask(r.Context(), reg, question)
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("agent failed")
		writeError(w, http.StatusBadGateway, "the assistant could not answer: "+err.Error())
		return
	}
	s.audit(r, sess, auditlog.ActionAsk, question)
	writeJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "no data loaded for this session")
		return nil, false
	}
	return sess, true
}

func (s *Server) describe(sess *session.Session, preview int) datasetResponse {
	resp := datasetResponse{
		SessionID: sess.ID,
		Source:    sess.Source,
		Columns:   sess.Dataset.Columns,
		Rows:      sess.Dataset.Len(),
	}
	if sess.RulesErr != nil {
		resp.RulesErr = sess.RulesErr.Error()
	}
	for i := 0; i < preview && i < sess.Dataset.Len(); i++ {
		resp.Preview = append(resp.Preview, rowJSON(sess.Dataset.Columns, sess.Dataset.Rows[i]))
	}
	return resp
}

func (s *Server) audit(r *http.Request, sess *session.Session, action, details string) {
	if s.opts.AuditRoot == "" {
		return
	}
	err := auditlog.Append(s.opts.AuditRoot, auditlog.Entry{
		Timestamp: time.Now(),
		RunID:     sess.ID,
		Action:    action,
		Source:    sess.Source,
		Details:   details,
	})
	if err != nil {
		logger.FromContext(r.Context()).Error().Err(err).Msg("writing audit log")
	}
}

func rowJSON(columns []string, row model.Row) map[string]any {
	out := make(map[string]any, len(columns))
	for _, c := range columns {
		out[c] = row.Get(c).Any()
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
