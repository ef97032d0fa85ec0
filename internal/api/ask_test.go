package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgehub/bridge/internal/bridge"
	"github.com/bridgehub/bridge/pkg/model"
)

// fakeAsker echoes prompts back and records what it received
type fakeAsker struct {
	mu          sync.Mutex
	queries     []model.QueryRequest
	concurrency int
}

func (f *fakeAsker) Process(ctx context.Context, q model.QueryRequest) model.ResponseEnvelope {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()

	return model.ResponseEnvelope{
		Text:       "echo: " + q.Prompt,
		Success:    true,
		QuestionID: q.QuestionID,
		SenderID:   q.SenderID,
		Vibe:       q.Vibe,
		Metadata:   model.ResponseMetadata{ModelUsed: "GPT-3.5", IsGuest: q.IsGuest()},
	}
}

func (f *fakeAsker) ProcessBatch(ctx context.Context, reqs []model.QueryRequest, concurrency int) []model.ResponseEnvelope {
	f.concurrency = concurrency
	out := make([]model.ResponseEnvelope, len(reqs))
	for i, q := range reqs {
		out[i] = f.Process(ctx, q)
	}
	return out
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAsk(t *testing.T) {
	asker := &fakeAsker{}
	server := setupTestServer(t, Deps{Asker: asker})

	rr := postJSON(t, server.Router(), "/api/v1/ask", `{
		"question": "  What is the capital of Peru?  ",
		"vibe": "Business/Professional",
		"answer_length": "brief",
		"confidence": true,
		"sender_id": "user_42",
		"question_id": "q-1",
		"response_preference": "CoT"
	}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var env model.ResponseEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "echo: What is the capital of Peru?", env.Text)
	assert.Equal(t, "q-1", env.QuestionID)

	require.Len(t, asker.queries, 1)
	q := asker.queries[0]
	assert.Equal(t, model.VibeBusiness, q.Vibe)
	assert.Equal(t, model.LengthShort, q.AnswerLength)
	assert.True(t, q.WantConfidence)
	assert.Equal(t, "user_42", q.SenderID)
	assert.Equal(t, model.PreferenceCoT, q.ResponsePreference)
}

func TestAsk_GuestDefaults(t *testing.T) {
	asker := &fakeAsker{}
	server := setupTestServer(t, Deps{Asker: asker})

	rr := postJSON(t, server.Router(), "/api/v1/ask", `{"question": "hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	require.Len(t, asker.queries, 1)
	q := asker.queries[0]
	assert.True(t, strings.HasPrefix(q.SenderID, "guest_"))
	assert.Len(t, q.SenderID, len("guest_")+8)
	assert.True(t, q.IsGuest())
	assert.NotEmpty(t, q.QuestionID)
	assert.Equal(t, model.VibeDaily, q.Vibe)
	assert.Equal(t, model.LengthMedium, q.AnswerLength)
}

func TestAsk_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{invalid json}`},
		{"empty question", `{"question": "   "}`},
		{"unknown vibe", `{"question": "hi", "vibe": "sarcastic"}`},
		{"unknown length", `{"question": "hi", "answer_length": "epic"}`},
		{"bad sender", `{"question": "hi", "sender_id": "a b;c"}`},
		{"too long", fmt.Sprintf(`{"question": %q}`, strings.Repeat("x", model.MaxPromptLength+1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asker := &fakeAsker{}
			server := setupTestServer(t, Deps{Asker: asker})

			rr := postJSON(t, server.Router(), "/api/v1/ask", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, asker.queries, "invalid requests never reach the pipeline")
		})
	}
}

func TestAsk_NoPipeline(t *testing.T) {
	server := setupTestServer(t, Deps{})

	rr := postJSON(t, server.Router(), "/api/v1/ask", `{"question": "hi"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAskBatch(t *testing.T) {
	asker := &fakeAsker{}
	server := setupTestServer(t, Deps{Asker: asker})

	rr := postJSON(t, server.Router(), "/api/v1/ask/batch", `{
		"questions": [{"question": "first"}, {"question": "second", "vibe": "technical"}],
		"concurrency": 50
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Responses, 2)
	assert.Equal(t, "echo: first", resp.Responses[0].Text)
	assert.Equal(t, "echo: second", resp.Responses[1].Text)
	assert.Equal(t, model.VibeTechnical, resp.Responses[1].Vibe)
	assert.Equal(t, bridge.DefaultBatchConcurrency, asker.concurrency)
}

func TestAskBatch_BadRequests(t *testing.T) {
	tooMany := make([]AskRequest, MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = AskRequest{Question: "q"}
	}
	oversized, err := json.Marshal(BatchRequest{Questions: tooMany})
	require.NoError(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", `{"questions": []}`, "questions is required"},
		{"too many", string(oversized), "at most"},
		{"invalid item", `{"questions": [{"question": "ok"}, {"question": ""}]}`, "questions[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t, Deps{Asker: &fakeAsker{}})

			rr := postJSON(t, server.Router(), "/api/v1/ask/batch", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}
