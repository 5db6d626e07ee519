package coordinator_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/coordinator/mocks"
	"github.com/absmach/fedcoord/pkg/cron"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTriggerDisabled(t *testing.T) {
	svc := new(mocks.MockService)
	trigger, err := coordinator.NewTrigger(svc, coordinator.TriggerConfig{K: 3}, logger)
	require.Nil(t, err)

	assert.Nil(t, trigger.Run(context.Background()))
	svc.AssertNotCalled(t, "GetStatus", mock.Anything)
}

func TestTriggerWaitsForK(t *testing.T) {
	svc := newService(t, coordinator.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger, err := coordinator.NewTrigger(svc, coordinator.TriggerConfig{K: 2, Interval: 5 * time.Millisecond}, logger)
	require.Nil(t, err)
	done := make(chan error, 1)
	go func() { done <- trigger.Run(ctx) }()

	_, err = svc.RegisterNode(ctx, "a", fl.Vector{1})
	require.Nil(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, uint64(0), svc.GetCurrentRound(ctx), "one submission must not close the round")

	_, err = svc.RegisterNode(ctx, "b", fl.Vector{3})
	require.Nil(t, err)
	assert.Eventually(t, func() bool {
		return svc.GetCurrentRound(ctx) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, fl.Vector{2}, svc.GetGlobalModel(ctx).Weights)

	cancel()
	assert.Nil(t, <-done)
}

func TestTriggerKeepsRunningAfterFailure(t *testing.T) {
	svc := new(mocks.MockService)
	var calls atomic.Int32
	svc.On("GetStatus", mock.Anything).Return(coordinator.Status{PendingSubmissions: 3})
	svc.On("TriggerAggregation", mock.Anything).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(coordinator.AggregationResult{}, errors.New("aggregation failed"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger, err := coordinator.NewTrigger(svc, coordinator.TriggerConfig{Interval: time.Millisecond}, logger)
	require.Nil(t, err)
	done := make(chan error, 1)
	go func() { done <- trigger.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, time.Second, time.Millisecond)

	cancel()
	assert.Nil(t, <-done)
}

func TestTriggerInvalidSchedule(t *testing.T) {
	cases := []struct {
		desc string
		cfg  coordinator.TriggerConfig
		err  error
	}{
		{desc: "malformed expression", cfg: coordinator.TriggerConfig{Schedule: "every minute"}, err: cron.ErrInvalidCronExpression},
		{desc: "unknown timezone", cfg: coordinator.TriggerConfig{Schedule: "* * * * *", Timezone: "Nowhere/Land"}, err: cron.ErrInvalidTimezone},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			_, err := coordinator.NewTrigger(new(mocks.MockService), tc.cfg, logger)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestTriggerOnSchedule(t *testing.T) {
	svc := newService(t, coordinator.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := svc.RegisterNode(ctx, "a", fl.Vector{1})
	require.Nil(t, err)

	trigger, err := coordinator.NewTrigger(svc, coordinator.TriggerConfig{Schedule: "@every 1s"}, logger)
	require.Nil(t, err)
	done := make(chan error, 1)
	go func() { done <- trigger.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return svc.GetCurrentRound(ctx) == 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	assert.Nil(t, <-done)
}
