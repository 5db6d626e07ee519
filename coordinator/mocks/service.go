package mocks

import (
	"context"

	"github.com/absmach/fedcoord/coordinator"
	"github.com/absmach/fedcoord/pkg/fl"
	"github.com/stretchr/testify/mock"
)

var _ coordinator.Service = (*MockService)(nil)

// MockService is a mock implementation of the coordinator.Service interface
type MockService struct {
	mock.Mock
}

// RegisterNode registers a training node
func (m *MockService) RegisterNode(ctx context.Context, nodeID string, weights fl.Vector) (fl.Node, error) {
	args := m.Called(ctx, nodeID, weights)
	return args.Get(0).(fl.Node), args.Error(1)
}

// UpdateNode records a node submission
func (m *MockService) UpdateNode(ctx context.Context, nodeID string, weights fl.Vector, dataSize int64, accuracy float64) (fl.ContributionRecord, error) {
	args := m.Called(ctx, nodeID, weights, dataSize, accuracy)
	return args.Get(0).(fl.ContributionRecord), args.Error(1)
}

// TriggerAggregation closes the current round
func (m *MockService) TriggerAggregation(ctx context.Context) (coordinator.AggregationResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(coordinator.AggregationResult), args.Error(1)
}

func (m *MockService) GetCurrentRound(ctx context.Context) uint64 {
	args := m.Called(ctx)
	return args.Get(0).(uint64)
}

func (m *MockService) GetGlobalAccuracy(ctx context.Context) float64 {
	args := m.Called(ctx)
	return args.Get(0).(float64)
}

func (m *MockService) GetActiveNodes(ctx context.Context) []fl.Node {
	args := m.Called(ctx)
	return args.Get(0).([]fl.Node)
}

func (m *MockService) GetBestOrGlobalModel(ctx context.Context) fl.GlobalModel {
	args := m.Called(ctx)
	return args.Get(0).(fl.GlobalModel)
}

func (m *MockService) GetGlobalModel(ctx context.Context) fl.GlobalModel {
	args := m.Called(ctx)
	return args.Get(0).(fl.GlobalModel)
}

func (m *MockService) GetStatus(ctx context.Context) coordinator.Status {
	args := m.Called(ctx)
	return args.Get(0).(coordinator.Status)
}

// GetNode retrieves a node by ID
func (m *MockService) GetNode(ctx context.Context, nodeID string) (fl.Node, error) {
	args := m.Called(ctx, nodeID)
	return args.Get(0).(fl.Node), args.Error(1)
}

// ListNodes lists nodes with pagination
func (m *MockService) ListNodes(ctx context.Context, offset, limit uint64) (coordinator.NodePage, error) {
	args := m.Called(ctx, offset, limit)
	return args.Get(0).(coordinator.NodePage), args.Error(1)
}

// GetRoundModel retrieves the model committed for a round
func (m *MockService) GetRoundModel(ctx context.Context, round uint64) (fl.GlobalModel, error) {
	args := m.Called(ctx, round)
	return args.Get(0).(fl.GlobalModel), args.Error(1)
}

// ListContributions lists a node's contribution history
func (m *MockService) ListContributions(ctx context.Context, nodeID string, offset, limit uint64) (coordinator.ContributionPage, error) {
	args := m.Called(ctx, nodeID, offset, limit)
	return args.Get(0).(coordinator.ContributionPage), args.Error(1)
}

func (m *MockService) Restore(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockService) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
