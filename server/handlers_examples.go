package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aqua777/go-ragserve/classify"
	"github.com/aqua777/go-ragserve/schema"
)

// UpsertExampleRequest is the body of POST /examples.
type UpsertExampleRequest struct {
	Text  string `json:"text" validate:"required,min=1"`
	Label int    `json:"label" validate:"gte=0,lte=4"`
}

// Validate checks the request fields.
func (r *UpsertExampleRequest) Validate() error {
	if err := validator.New().Struct(r); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// UpsertExampleResponse is the response of POST /examples.
type UpsertExampleResponse struct {
	ID       string `json:"id"`
	Label    int    `json:"label"`
	Category string `json:"category"`
}

// handleUpsertExample embeds one labeled example and stores it in the
// vector index so later classifications can retrieve it.
func (s *Server) handleUpsertExample(w http.ResponseWriter, r *http.Request) {
	var req UpsertExampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	vector, err := s.embedder.GetTextEmbedding(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("failed to embed example", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to embed example")
		return
	}

	id := uuid.New().String()
	category := classify.CategoryName(req.Label)
	example := schema.NewExample(req.Text, req.Label, category)
	if err := s.index.Upsert(r.Context(), id, vector, example); err != nil {
		s.logger.Error("failed to store example", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to store example")
		return
	}

	s.jsonResponse(w, http.StatusCreated, UpsertExampleResponse{
		ID:       id,
		Label:    req.Label,
		Category: category,
	})
}
