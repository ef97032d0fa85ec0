package nats

import (
	"context"
	"time"
)

// Stream names
const (
	StreamQA = "BRIDGE_QA"
)

// Subjects
const (
	// SubjectQAAll matches every QA subject
	SubjectQAAll = "qa.>"

	// SubjectQARecorded carries one JSON-encoded model.QARecord per answered question
	SubjectQARecorded = "qa.recorded"
)

// Consumer names
const (
	ConsumerHistory = "history-writer"
)

// DefaultStreamConfig returns the default configuration for the QA stream
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Name:        StreamQA,
		Subjects:    []string{SubjectQAAll},
		MaxMsgs:     100000,
		MaxBytes:    1024 * 1024 * 500, // 500MB
		MaxAge:      7 * 24 * time.Hour,
		Replicas:    1,
		Description: "Bridge QA history stream",
	}
}

// SetupStreams creates the QA stream and the history consumer
func (c *Client) SetupStreams(ctx context.Context) error {
	if _, err := c.CreateStream(ctx, DefaultStreamConfig()); err != nil {
		return err
	}

	_, err := c.CreateConsumer(ctx, StreamQA, ConsumerHistory, SubjectQARecorded)
	return err
}
