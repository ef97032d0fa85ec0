package nats

import (
	"context"
	"testing"
	"time"
)

func TestStreamConfig_Fields(t *testing.T) {
	cfg := StreamConfig{
		Name:        "test-stream",
		Subjects:    []string{"test.>"},
		MaxMsgs:     10000,
		MaxBytes:    1024 * 1024,
		MaxAge:      24 * time.Hour,
		Replicas:    3,
		Description: "Test stream",
	}

	if cfg.Name != "test-stream" {
		t.Errorf("Name = %s, want test-stream", cfg.Name)
	}
	if len(cfg.Subjects) != 1 || cfg.Subjects[0] != "test.>" {
		t.Errorf("Subjects = %v, want [test.>]", cfg.Subjects)
	}
	if cfg.MaxAge != 24*time.Hour {
		t.Errorf("MaxAge = %v, want 24h", cfg.MaxAge)
	}
}

func TestClient_NilState(t *testing.T) {
	client := &Client{}

	if client.IsConnected() {
		t.Error("IsConnected() should return false for nil connection")
	}
	if client.JetStream() != nil {
		t.Error("JetStream() should return nil")
	}
	if client.Conn() != nil {
		t.Error("Conn() should return nil")
	}
	if err := client.HealthCheck(); err == nil {
		t.Error("HealthCheck() should return error for nil connection")
	}
}

func TestClient_CloseIdempotent(t *testing.T) {
	client := &Client{}

	client.Close()
	client.Close()

	if !client.closed {
		t.Error("client should be marked as closed")
	}
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient("nats://invalid-host-that-does-not-exist:4222", "bridge-test")
	if err == nil {
		t.Error("NewClient() should return error for unreachable server")
	}
}

func TestClient_NotConnected(t *testing.T) {
	client := &Client{}
	ctx := context.Background()

	if _, err := client.CreateStream(ctx, StreamConfig{Name: "test"}); err == nil {
		t.Error("CreateStream() should return error when not connected")
	}
	if _, err := client.CreateConsumer(ctx, "stream", "consumer", "subject"); err == nil {
		t.Error("CreateConsumer() should return error when not connected")
	}
	if _, err := client.Consumer(ctx, StreamQA, ConsumerHistory); err == nil {
		t.Error("Consumer() should return error when not connected")
	}
	if _, err := client.Publish(ctx, SubjectQARecorded, []byte("data")); err == nil {
		t.Error("Publish() should return error when not connected")
	}
	if err := client.SetupStreams(ctx); err == nil {
		t.Error("SetupStreams() should return error when not connected")
	}
}

func TestClient_PublishJSON_MarshalError(t *testing.T) {
	client := &Client{}

	_, err := client.PublishJSON(context.Background(), SubjectQARecorded, make(chan int))
	if err == nil {
		t.Error("PublishJSON() should fail for an unmarshalable value")
	}
}
