package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bridgehub/bridge/internal/bridge"
	"github.com/bridgehub/bridge/pkg/model"
)

// MaxBatchSize is the largest number of questions accepted in one batch
const MaxBatchSize = 20

// maxBodyBytes bounds request bodies; a full batch of maximum-length prompts fits
const maxBodyBytes = 1 << 20

// AskRequest is the request body for a single question
type AskRequest struct {
	Question           string   `json:"question"`
	Vibe               string   `json:"vibe,omitempty"`
	AnswerLength       string   `json:"answer_length,omitempty"`
	ResponsePreference string   `json:"response_preference,omitempty"`
	Confidence         bool     `json:"confidence,omitempty"`
	SenderID           string   `json:"sender_id,omitempty"`
	QuestionID         string   `json:"question_id,omitempty"`
	AdditionalInfo     []string `json:"additional_info,omitempty"`
}

// BatchRequest is the request body for several questions
type BatchRequest struct {
	Questions   []AskRequest `json:"questions"`
	Concurrency int          `json:"concurrency,omitempty"`
}

// BatchResponse holds one envelope per question, in request order
type BatchResponse struct {
	Responses []model.ResponseEnvelope `json:"responses"`
}

// toQuery validates the request and converts it to a pipeline query.
// Anonymous callers get a guest sender id.
func (a AskRequest) toQuery() (model.QueryRequest, error) {
	vibe, err := model.ParseVibe(a.Vibe)
	if err != nil {
		return model.QueryRequest{}, err
	}
	length, err := model.ParseAnswerLength(a.AnswerLength)
	if err != nil {
		return model.QueryRequest{}, err
	}

	q := model.QueryRequest{
		Prompt:             strings.TrimSpace(a.Question),
		Vibe:               vibe,
		AnswerLength:       length,
		SenderID:           a.SenderID,
		QuestionID:         a.QuestionID,
		WantConfidence:     a.Confidence,
		ResponsePreference: a.ResponsePreference,
		AdditionalInfo:     a.AdditionalInfo,
	}
	if q.SenderID == "" {
		q.SenderID = "guest_" + uuid.New().String()[:8]
	}
	if q.QuestionID == "" {
		q.QuestionID = uuid.New().String()
	}

	if err := model.ValidateQuery(q); err != nil {
		return model.QueryRequest{}, err
	}
	return q, nil
}

// ask answers one question
func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	if s.deps.Asker == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not available")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q, err := req.toQuery()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().
		Str("question_id", q.QuestionID).
		Str("sender_id", q.SenderID).
		Str("vibe", string(q.Vibe)).
		Msg("processing question")

	writeJSON(w, http.StatusOK, s.deps.Asker.Process(r.Context(), q))
}

// askBatch answers several questions with bounded concurrency
func (s *Server) askBatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Asker == nil {
		writeError(w, http.StatusServiceUnavailable, "pipeline not available")
		return
	}

	var req BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "questions is required")
		return
	}
	if len(req.Questions) > MaxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d questions per batch", MaxBatchSize))
		return
	}

	queries := make([]model.QueryRequest, len(req.Questions))
	for i, item := range req.Questions {
		q, err := item.toQuery()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("questions[%d]: %v", i, err))
			return
		}
		queries[i] = q
	}

	concurrency := req.Concurrency
	if concurrency <= 0 || concurrency > bridge.DefaultBatchConcurrency {
		concurrency = bridge.DefaultBatchConcurrency
	}

	writeJSON(w, http.StatusOK, BatchResponse{Responses: s.deps.Asker.ProcessBatch(r.Context(), queries, concurrency)})
}
