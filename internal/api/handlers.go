package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aezell/codemint/internal/antipattern"
	"github.com/aezell/codemint/internal/model"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"detectors": s.registry.Len(),
	})
}

// --- Validate ---

type validateRequest struct {
	Codemod   model.CodemodDefinition `json:"codemod"`
	Cases     []model.ReplayCase      `json:"cases" validate:"dive"`
	TimeoutMS int64                   `json:"timeout_ms,omitempty" validate:"gte=0"`
}

type validateResponse struct {
	Codemod model.CodemodDefinition `json:"codemod"`
	Status  model.CodemodStatus     `json:"status"`
	Summary string                  `json:"summary"`
	Active  bool                    `json:"active"`
}

// definition fills in an ID and timestamp for codemods submitted without one.
func (req validateRequest) definition() model.CodemodDefinition {
	def := req.Codemod
	if def.CodemodID == "" {
		fresh := model.NewCodemodDefinition(def.PatternID, def.RuleID, def.Language, def.CodemodSource, def.TransformSignature)
		fresh.Status = def.Status
		fresh.ReplayResult = def.ReplayResult
		def = fresh
	}
	return def
}

func (req validateRequest) timeout() time.Duration {
	return time.Duration(req.TimeoutMS) * time.Millisecond
}

func newValidateResponse(def model.CodemodDefinition) validateResponse {
	return validateResponse{
		Codemod: def,
		Status:  def.Status,
		Summary: def.ReplayResult.Summary(),
		Active:  def.Active(),
	}
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	def := s.validator.Validate(r.Context(), req.definition(), req.Cases, req.timeout())
	s.writeJSON(w, http.StatusOK, newValidateResponse(def))
}

// --- Check ---

type checkRequest struct {
	Source      string `json:"source"`
	FilePath    string `json:"file_path" validate:"required"`
	PatternID   string `json:"pattern_id,omitempty"`
	RuleID      string `json:"rule_id,omitempty"`
	Signature   string `json:"signature,omitempty"`
	Description string `json:"description,omitempty"`
	RemovedOnly bool   `json:"removed_only,omitempty"`
}

type checkResponse struct {
	Total      int                          `json:"total"`
	Violations []model.AntiPatternViolation `json:"violations"`
}

// errNoDetector reports a check against a pattern with no registered detector.
var errNoDetector = errors.New("no detector registered for pattern")

// check runs req against an ad-hoc detector, one registered detector, or all of them.
func (s *Server) check(req checkRequest) ([]model.AntiPatternViolation, error) {
	var violations []model.AntiPatternViolation
	switch {
	case req.Signature != "":
		v := antipattern.FromScopedSignature(req.PatternID, req.RuleID, req.Signature, req.Description, scopeOf(req.RemovedOnly))
		violations = v.Check(req.Source, req.FilePath)
	case req.PatternID != "":
		v, ok := s.registry.Lookup(req.PatternID)
		if !ok {
			return nil, fmt.Errorf("%w %s", errNoDetector, req.PatternID)
		}
		violations = v.Check(req.Source, req.FilePath)
	default:
		violations = s.registry.CheckAll(req.Source, req.FilePath)
	}
	if violations == nil {
		violations = []model.AntiPatternViolation{}
	}
	return violations, nil
}

func scopeOf(removedOnly bool) antipattern.Scope {
	if removedOnly {
		return antipattern.ScopeRemoved
	}
	return antipattern.ScopeContent
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	violations, err := s.check(req)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, checkResponse{Total: len(violations), Violations: violations})
}

// --- Detectors ---

type detectorRequest struct {
	PatternID   string `json:"pattern_id" validate:"required"`
	RuleID      string `json:"rule_id"`
	Signature   string `json:"signature" validate:"required"`
	Description string `json:"description,omitempty"`
	RemovedOnly bool   `json:"removed_only,omitempty"`
}

func (s *Server) handleRegisterDetector(w http.ResponseWriter, r *http.Request) {
	var req detectorRequest
	if err := s.readJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	v := antipattern.FromScopedSignature(req.PatternID, req.RuleID, req.Signature, req.Description, scopeOf(req.RemovedOnly))
	if len(v.Tokens()) == 0 {
		s.logger.Info("detector has no tokens and will never match", zap.String("pattern_id", req.PatternID))
	}
	s.registry.Register(v)
	s.writeJSON(w, http.StatusCreated, v.Descriptor())
}

func (s *Server) handleListDetectors(w http.ResponseWriter, r *http.Request) {
	validators := s.registry.Validators()
	out := make([]antipattern.Descriptor, 0, len(validators))
	for _, v := range validators {
		out = append(out, v.Descriptor())
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"detectors": out})
}

func (s *Server) handleRemoveDetector(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("pattern_id")
	if !s.registry.Remove(id) {
		s.writeError(w, http.StatusNotFound, "no detector registered for pattern "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Prompt ---

type promptResponse struct {
	PatternID string `json:"pattern_id"`
	Prompt    string `json:"prompt"`
}

func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var spec model.CodemodGeneratorSpec
	if err := s.readJSON(w, r, &spec); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	prompt, err := spec.Prompt()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, promptResponse{PatternID: spec.PatternID, Prompt: prompt})
}
