package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

func TestProducerPublish(t *testing.T) {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	mock := mocks.NewSyncProducer(t, cfg)
	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"evt-1"}` {
			t.Errorf("payload = %s", val)
		}
		return nil
	})
	p := newProducerFrom(mock)
	if err := p.Publish(context.Background(), "booking.events.v1", "bk-1", []byte(`{"id":"evt-1"}`), map[string]string{"content-type": "application/cloudevents+json"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestProducerPublishHonoursCancelledContext(t *testing.T) {
	mock := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	p := newProducerFrom(mock)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, "t", "k", nil, nil); err == nil {
		t.Fatal("expected context error")
	}
	_ = p.Close()
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("vendorbook")
	if cfg.ClientID != "vendorbook" || cfg.Version != sarama.V2_5_0_0 {
		t.Fatalf("config = %+v", cfg)
	}
}
