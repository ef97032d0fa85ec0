package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseVibe(t *testing.T) {
	tests := []struct {
		input   string
		want    Vibe
		wantErr bool
	}{
		{"", VibeDaily, false},
		{"Academic/Research", VibeAcademic, false},
		{"business_professional", VibeBusiness, false},
		{" technical ", VibeTechnical, false},
		{"creative/emotional", VibeCreative, false},
		{"general", VibeDaily, false},
		{"sarcastic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVibe(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVibe(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnknownVibe) {
				t.Errorf("error should wrap ErrUnknownVibe, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseVibe(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseAnswerLength(t *testing.T) {
	tests := []struct {
		input   string
		want    AnswerLength
		wantErr bool
	}{
		{"", LengthMedium, false},
		{"brief", LengthShort, false},
		{"Standard", LengthMedium, false},
		{"in-depth", LengthDetailed, false},
		{"epic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAnswerLength(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAnswerLength(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAnswerLength(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	valid := QueryRequest{Prompt: "What is the capital of Peru?", Vibe: VibeDaily, AnswerLength: LengthShort, SenderID: "guest_ab12cd34"}

	tests := []struct {
		name   string
		mutate func(*QueryRequest)
		want   error
	}{
		{"valid", func(q *QueryRequest) {}, nil},
		{"blank prompt", func(q *QueryRequest) { q.Prompt = " \n\t" }, ErrEmptyPrompt},
		{"too long", func(q *QueryRequest) { q.Prompt = strings.Repeat("é", MaxPromptLength+1) }, ErrPromptTooLong},
		{"max length", func(q *QueryRequest) { q.Prompt = strings.Repeat("é", MaxPromptLength) }, nil},
		{"bad sender", func(q *QueryRequest) { q.SenderID = "user@example.com" }, ErrInvalidSender},
		{"empty sender", func(q *QueryRequest) { q.SenderID = "" }, nil},
		{"bad vibe", func(q *QueryRequest) { q.Vibe = "noir" }, ErrUnknownVibe},
		{"bad length", func(q *QueryRequest) { q.AnswerLength = "epic" }, ErrUnknownLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			tt.mutate(&q)

			err := ValidateQuery(q)
			if tt.want == nil && err != nil {
				t.Errorf("ValidateQuery() = %v, want nil", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("ValidateQuery() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNormalizePrompt(t *testing.T) {
	got := NormalizePrompt("  What IS\tthe   Capital\nof Peru?  ")
	if got != "what is the capital of peru?" {
		t.Errorf("NormalizePrompt() = %q", got)
	}
}

func TestQueryRequest_IsGuest(t *testing.T) {
	if !(QueryRequest{SenderID: "guest_1a2b3c4d"}).IsGuest() {
		t.Error("guest_ prefix should be a guest")
	}
	if (QueryRequest{SenderID: "user_42"}).IsGuest() {
		t.Error("user_42 should not be a guest")
	}
}

func TestMatchType_Hit(t *testing.T) {
	for _, m := range []MatchType{MatchExact, MatchSemantic, MatchRemote} {
		if !m.Hit() {
			t.Errorf("%s.Hit() = false, want true", m)
		}
	}
	if MatchNone.Hit() || MatchType("").Hit() {
		t.Error("none should not be a hit")
	}
}

func TestTokenUsage_Add(t *testing.T) {
	got := TokenUsage{Prompt: 10, Completion: 5, Total: 15}.Add(TokenUsage{Prompt: 30, Completion: 15, Total: 45})
	if got != (TokenUsage{Prompt: 40, Completion: 20, Total: 60}) {
		t.Errorf("Add() = %+v", got)
	}
}

func TestQARecord_Expired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past, future := now.Add(-time.Minute), now.Add(time.Minute)

	if (&QARecord{}).Expired(now) {
		t.Error("record without expiry should never expire")
	}
	if !(&QARecord{ExpiresAt: &past}).Expired(now) {
		t.Error("past expiry should be expired")
	}
	if (&QARecord{ExpiresAt: &future}).Expired(now) {
		t.Error("future expiry should not be expired")
	}
}
