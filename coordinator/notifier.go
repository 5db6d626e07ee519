package coordinator

import (
	"context"
	"time"

	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/absmach/fedcoord/pkg/mqtt"
)

const nextRoundTopic = "fl/rounds/next"

// RoundNotification tells training nodes that a round was committed and
// which round they should train for next.
type RoundNotification struct {
	Round         uint64    `json:"round"`
	PreviousRound uint64    `json:"previous_round"`
	Accuracy      float64   `json:"accuracy"`
	Participants  int       `json:"participants"`
	TotalDataSize int64     `json:"total_data_size"`
	Algorithm     string    `json:"algorithm"`
	Timestamp     time.Time `json:"timestamp"`
}

type mqttNotifier struct {
	pubsub mqtt.PubSub
	topic  string
}

func NewMQTTNotifier(pubsub mqtt.PubSub, baseTopic string) Notifier {
	return &mqttNotifier{
		pubsub: pubsub,
		topic:  mqtt.Topic(baseTopic, nextRoundTopic),
	}
}

func (n *mqttNotifier) NotifyRound(ctx context.Context, model fl.GlobalModel) error {
	msg := RoundNotification{
		Round:         model.Round,
		PreviousRound: model.Round - 1,
		Accuracy:      model.Accuracy,
		Participants:  model.Participants,
		TotalDataSize: model.TotalDataSize,
		Algorithm:     model.Algorithm,
		Timestamp:     model.CreatedAt,
	}

	return n.pubsub.Publish(ctx, n.topic, msg)
}

type nopNotifier struct{}

func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) NotifyRound(context.Context, fl.GlobalModel) error {
	return nil
}
