package mqtt_test

import (
	"testing"

	"github.com/absmach/fedcoord/pkg/mqtt"
	"github.com/stretchr/testify/assert"
)

func TestTopic(t *testing.T) {
	cases := []struct {
		desc   string
		base   string
		suffix string
		want   string
	}{
		{desc: "with base topic", base: "fedcoord", suffix: "fl/rounds/next", want: "fedcoord/fl/rounds/next"},
		{desc: "nested base topic", base: "m/domain/c/channel", suffix: "fl/rewards", want: "m/domain/c/channel/fl/rewards"},
		{desc: "empty base topic", base: "", suffix: "fl/rounds/next", want: "fl/rounds/next"},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, mqtt.Topic(tc.base, tc.suffix))
		})
	}
}

func TestNewPubSubEmptyID(t *testing.T) {
	_, err := mqtt.NewPubSub(mqtt.Config{URL: "tcp://localhost:1883"}, nil)
	assert.NotNil(t, err)
}
