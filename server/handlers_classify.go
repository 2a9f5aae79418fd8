package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/aqua777/go-ragserve/history"
	"github.com/aqua777/go-ragserve/pipeline"
	"github.com/aqua777/go-ragserve/schema"
)

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Message string `json:"message" validate:"required,min=1,max=10000"`
}

// Validate checks the request fields.
func (r *ClassifyRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// ClassifyResponse is the response of POST /classify.
type ClassifyResponse struct {
	PredictedLabel       int              `json:"predicted_label"`
	PredictedCategory    string           `json:"predicted_category"`
	Confidence           float64          `json:"confidence"`
	Reasoning            string           `json:"reasoning"`
	Text                 string           `json:"text"`
	RetrievalTimeMs      int64            `json:"retrieval_time_ms"`
	ClassificationTimeMs int64            `json:"classification_time_ms"`
	RetrievedExamples    []schema.Example `json:"retrieved_examples,omitempty"`
}

// HistoryResponse is the response of GET /history.
type HistoryResponse struct {
	Total   int64                          `json:"total"`
	Records []history.ClassificationRecord `json:"records"`
}

// handleClassify runs the classification pipeline through the worker
// pool and persists the outcome. Degraded runs still answer 200; only
// retrieval failures surface as errors.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	outcome, err := s.pool.Run(r.Context(), s.classifier, req.Message)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunTimeout) {
			s.logger.Error("classification timed out", "error", err)
			s.errorResponse(w, http.StatusGatewayTimeout, "classification timed out")
			return
		}
		s.logger.Error("classification run failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "classification failed")
		return
	}
	total := time.Since(start)

	result, ok := outcome.Result().(schema.ClassificationResult)
	if !ok {
		s.logger.Error("unexpected generation result type")
		s.errorResponse(w, http.StatusInternalServerError, "classification failed")
		return
	}

	state := outcome.State
	examples := state.Retrieval().Examples
	record := &history.ClassificationRecord{
		Text:                 req.Message,
		PredictedLabel:       result.Label,
		PredictedCategory:    result.Category,
		Confidence:           result.Confidence,
		Reasoning:            result.Reasoning,
		RetrievedExamples:    examples,
		NumRetrieved:         len(examples),
		ModelUsed:            s.settings.ClassifyModel,
		PipelineVersion:      pipeline.Version,
		RetrievalTimeMs:      state.Retrieval().Elapsed.Milliseconds(),
		ClassificationTimeMs: state.Generation().Elapsed.Milliseconds(),
		TotalTimeMs:          total.Milliseconds(),
	}
	if _, err := s.store.SaveClassification(r.Context(), record); err != nil {
		// The caller still gets the classification; only history is lost.
		s.logger.Error("failed to save classification record", "error", err)
	}

	resp := ClassifyResponse{
		PredictedLabel:       result.Label,
		PredictedCategory:    result.Category,
		Confidence:           result.Confidence,
		Reasoning:            result.Reasoning,
		Text:                 req.Message,
		RetrievalTimeMs:      record.RetrievalTimeMs,
		ClassificationTimeMs: record.ClassificationTimeMs,
	}
	if r.URL.Query().Get("include_examples") == "true" {
		resp.RetrievedExamples = examples
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleListHistory lists stored classifications, newest first.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	skip := 0
	limit := 100
	if v := r.URL.Query().Get("skip"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			s.errorResponse(w, http.StatusBadRequest, "skip must be a non-negative integer")
			return
		}
		skip = parsed
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 1000 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}

	records, err := s.store.ListClassifications(r.Context(), skip, limit)
	if err != nil {
		s.logger.Error("failed to list classifications", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	total, err := s.store.CountClassifications(r.Context())
	if err != nil {
		s.logger.Error("failed to count classifications", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	if records == nil {
		records = []history.ClassificationRecord{}
	}
	s.jsonResponse(w, http.StatusOK, HistoryResponse{Total: total, Records: records})
}
