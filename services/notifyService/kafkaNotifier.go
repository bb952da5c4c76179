package notifyService

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"perfectTipsBot/models"
)

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier emits each report as a JSON event keyed by run id.
type KafkaNotifier struct {
	writer kafkaWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}}
}

func (k *KafkaNotifier) Name() string { return "kafka" }

func (k *KafkaNotifier) NotifySettlement(ctx context.Context, report models.SettlementReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(report.RunID),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "mode", Value: []byte(report.Mode)},
		},
	})
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}

// SplitBrokers turns "a:9092, b:9092" into a broker list.
func SplitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
