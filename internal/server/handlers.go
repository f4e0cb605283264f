package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ahrav/go-jury/internal/application"
	"github.com/ahrav/go-jury/internal/domain"
)

// EvaluateRequest is the body of POST /v1/evaluate. Responses without an id
// are numbered response_1, response_2, ... by position.
type EvaluateRequest struct {
	Prompt      string                     `json:"prompt"`
	Responses   []domain.ResponseCandidate `json:"responses"`
	ResponseIDs []string                   `json:"response_ids,omitempty"`
}

// AggregateRequest is the body of POST /v1/aggregate.
type AggregateRequest struct {
	Evaluations []domain.JurorEvaluation `json:"evaluations"`
	Method      string                   `json:"method"`
	Strategy    string                   `json:"strategy,omitempty"`
}

// AggregateResponse reports a standalone aggregation.
type AggregateResponse struct {
	Result     domain.VotingResult `json:"result"`
	Confidence float64             `json:"confidence"`
	Margin     *float64            `json:"margin"`
}

// StrategiesResponse lists the voting methods and custom strategies.
type StrategiesResponse struct {
	Methods []domain.VotingMethod `json:"methods"`
	Custom  []string              `json:"custom"`
}

type healthResp struct {
	Status          string `json:"status"`
	JuryInitialized bool   `json:"jury_initialized"`
}

const minEvaluateResponses = 2

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResp{Status: "healthy", JuryInitialized: s.jury != nil})
}

func (s *Server) summary(w http.ResponseWriter, _ *http.Request) {
	if s.jury == nil {
		writeError(w, http.StatusServiceUnavailable, "jury not initialized")
		return
	}
	writeJSON(w, http.StatusOK, s.jury.Summary())
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	if s.jury == nil {
		writeError(w, http.StatusServiceUnavailable, "jury not initialized")
		return
	}

	var req EvaluateRequest
	if !decode(w, r, &req) {
		return
	}
	if len(req.Responses) < minEvaluateResponses {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at least %d responses are required", minEvaluateResponses))
		return
	}
	for i := range req.Responses {
		if req.Responses[i].ID == "" {
			req.Responses[i].ID = "response_" + strconv.Itoa(i+1)
		}
	}

	var opts []application.EvaluateOption
	if len(req.ResponseIDs) > 0 {
		opts = append(opts, application.WithResponseIDs(req.ResponseIDs...))
	}

	verdict, err := s.jury.Evaluate(r.Context(), req.Prompt, req.Responses, opts...)
	if err != nil {
		s.logger.Error("evaluation failed", "error", err)
		writeError(w, evaluateStatus(err), err.Error())
		return
	}

	if simple, _ := strconv.ParseBool(r.URL.Query().Get("simple")); simple {
		writeJSON(w, http.StatusOK, verdict.Simple())
		return
	}
	writeJSON(w, http.StatusOK, verdict)
}

func evaluateStatus(err error) int {
	switch {
	case errors.Is(err, application.ErrNoCandidates),
		errors.Is(err, application.ErrResponseIDMismatch),
		errors.Is(err, domain.ErrDuplicateResponse):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrAllJurorsFailed):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) aggregate(w http.ResponseWriter, r *http.Request) {
	var req AggregateRequest
	if !decode(w, r, &req) {
		return
	}

	method, err := domain.ParseVotingMethod(req.Method)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	evaluations := make([]domain.JurorEvaluation, 0, len(req.Evaluations))
	for _, e := range req.Evaluations {
		checked, err := domain.NewJurorEvaluation(e.JurorName, e.JurorWeight, e.ResponseScores...)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		evaluations = append(evaluations, checked)
	}

	result, err := s.aggregator.Aggregate(evaluations, method, req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	final, err := application.NewFinalVerdict(result)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AggregateResponse{
		Result:     result,
		Confidence: final.Confidence,
		Margin:     final.WinnerMargin,
	})
}

func (s *Server) strategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StrategiesResponse{
		Methods: domain.VotingMethods(),
		Custom:  s.aggregator.Registry().List(),
	})
}
