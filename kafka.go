package nftsync

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TokenEventTopic = "nftsync_token_event"

	kafkaWriteTimeout = 10 * time.Second
)

type KWriter struct {
	w *kafka.Writer
}

func NewKWriter(topic string, uri string) (*KWriter, error) {
	w := &kafka.Writer{
		Addr:     kafka.TCP(uri),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}

	return &KWriter{
		w: w,
	}, nil
}

// WriteKey keeps events of one token on one partition.
func (kw *KWriter) WriteKey(key, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), kafkaWriteTimeout)
	defer cancel()
	return kw.w.WriteMessages(ctx,
		kafka.Message{
			Key:   key,
			Value: body,
		},
	)
}

func (kw *KWriter) Close() {
	kw.w.Close()
}
