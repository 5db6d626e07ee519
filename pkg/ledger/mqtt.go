package ledger

import (
	"context"
	"fmt"

	"github.com/absmach/fedcoord/pkg/mqtt"
	"github.com/google/uuid"
)

const rewardsTopic = "fl/rewards"

type mqttLedger struct {
	pubsub mqtt.PubSub
	topic  string
}

// NewMQTTLedger publishes every contribution to <baseTopic>/fl/rewards,
// where a ledger bridge picks it up. The transaction id is generated here.
func NewMQTTLedger(pubsub mqtt.PubSub, baseTopic string) Ledger {
	return &mqttLedger{
		pubsub: pubsub,
		topic:  mqtt.Topic(baseTopic, rewardsTopic),
	}
}

func (l *mqttLedger) SubmitContribution(ctx context.Context, nodeID string, score float64) (string, error) {
	if err := validate(nodeID, score); err != nil {
		return "", err
	}

	c := Contribution{
		TransactionID: uuid.NewString(),
		NodeID:        nodeID,
		Score:         score,
	}
	if err := l.pubsub.Publish(ctx, l.topic, c); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return c.TransactionID, nil
}

func validate(nodeID string, score float64) error {
	if nodeID == "" {
		return ErrEmptyNodeID
	}
	if !(score >= 0) {
		return ErrInvalidScore
	}

	return nil
}
