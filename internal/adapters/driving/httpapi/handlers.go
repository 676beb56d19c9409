package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
	maxBodyBytes        = 1 << 20
)

type chatRequest struct {
	Question string `json:"question"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type batchResponse struct {
	Predictions []domain.Label `json:"predictions"`
}

type healthResponse struct {
	Status      string `json:"status"`
	IndexChunks int    `json:"index_chunks"`
	LLM         string `json:"llm"`
	Embedding   string `json:"embedding"`
}

type historyResponse struct {
	Entries []domain.QnALogEntry `json:"entries"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "COVID Reinfection Prediction API"})
}

func (s *Server) health(c *gin.Context) {
	resp := healthResponse{
		Status:    "ok",
		LLM:       s.ports.LLMModel,
		Embedding: s.ports.EmbeddingModel,
	}
	if s.ports.Index != nil {
		stats, err := s.ports.Index.Stats(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusInternalServerError, fmt.Errorf("index stats: %w", err))
			return
		}
		resp.IndexChunks = stats.Chunks
	}
	c.JSON(http.StatusOK, resp)
}

// predict assesses exactly one patient. Prediction failures are reported,
// never replaced by a default label.
func (s *Server) predict(c *gin.Context) {
	var records []domain.PatientRecord
	if !bindStrict(c, &records) {
		return
	}
	if len(records) != 1 {
		respondDomainError(c, fmt.Errorf("%w: expected exactly 1 patient record, got %d",
			domain.ErrInvalidInput, len(records)))
		return
	}
	if s.ports.Assessment == nil {
		respondDomainError(c, domain.ErrArtifactsUnavailable)
		return
	}

	assessment, err := s.ports.Assessment.Assess(c.Request.Context(), records[0])
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) predictBatch(c *gin.Context) {
	var records []domain.PatientRecord
	if !bindStrict(c, &records) {
		return
	}
	if s.ports.Prediction == nil {
		respondDomainError(c, domain.ErrArtifactsUnavailable)
		return
	}

	labels, err := s.ports.Prediction.Predict(c.Request.Context(), records)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, batchResponse{Predictions: labels})
}

// explain returns a literature-only explanation. Provider failures come
// back as 200 with the error marker in the text.
func (s *Server) explain(c *gin.Context) {
	var record domain.PatientRecord
	if !bindStrict(c, &record) {
		return
	}
	if err := record.Validate(); err != nil {
		respondDomainError(c, err)
		return
	}
	if s.ports.Explanation == nil {
		respondDomainError(c, domain.ErrLLMUnavailable)
		return
	}
	c.JSON(http.StatusOK, s.ports.Explanation.Explain(c.Request.Context(), record))
}

func (s *Server) chat(c *gin.Context) {
	var req chatRequest
	if !bindStrict(c, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondDomainError(c, fmt.Errorf("%w: question is required", domain.ErrInvalidInput))
		return
	}
	if s.ports.Explanation == nil {
		respondDomainError(c, domain.ErrLLMUnavailable)
		return
	}

	exp := s.ports.Explanation.Chat(c.Request.Context(), req.Question)
	c.JSON(http.StatusOK, chatResponse{Response: exp.Text})
}

func (s *Server) history(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			respondDomainError(c, fmt.Errorf("%w: limit must be between 1 and %d",
				domain.ErrInvalidInput, maxHistoryLimit))
			return
		}
		limit = n
	}
	if s.ports.History == nil {
		c.JSON(http.StatusOK, historyResponse{Entries: []domain.QnALogEntry{}})
		return
	}

	entries, err := s.ports.History.Recent(c.Request.Context(), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, historyResponse{Entries: entries})
}

// bindStrict decodes a JSON body, rejecting unknown fields and trailing
// data. It writes a 400 response and returns false on failure.
func bindStrict(c *gin.Context, v any) bool {
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("malformed request body: %w", err))
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, errors.New("malformed request body: unexpected data after JSON value"))
		return false
	}
	return true
}
