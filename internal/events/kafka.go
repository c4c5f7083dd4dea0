package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink forwards bus events to a Kafka topic as an audit trail of scan
// and basket activity. It is optional; the pipeline works without it.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaSink{writer: writer}
}

// Attach subscribes the sink to both bus topics. Delivery is best effort:
// a broker failure is logged and never blocks the pipeline.
func (s *KafkaSink) Attach(bus *Bus) {
	bus.SubscribeScan(func(evt ScanDetected) {
		s.publish(evt.SessionID, TopicScanDetected, evt)
	})
	bus.SubscribeBasketChange(func(evt BasketChanged) {
		s.publish(evt.SessionID, TopicBasketChanged, evt)
	})
}

func (s *KafkaSink) publish(key, eventType string, event any) {
	data, err := json.Marshal(struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: eventType, Data: event})
	if err != nil {
		log.Printf("[Events] Failed to encode %s event: %v", eventType, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := s.writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(key),
			Value: data,
			Time:  time.Now(),
		})
		if err != nil {
			log.Printf("[Events] Failed to publish %s to Kafka: %v", eventType, err)
		}
	}()
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}
