package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockOracle is a mock implementation of Oracle
type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) ResolveAmbiguous(ctx context.Context, query string, candidates []string) (OracleVerdict, error) {
	args := m.Called(ctx, query, candidates)
	return args.Get(0).(OracleVerdict), args.Error(1)
}

func TestResolverPicksClosestValue(t *testing.T) {
	r := NewResolver(nil, DefaultMinConfidence, zap.NewNop())

	res := r.Resolve("iphone 13", []string{"iPhone 13 Pro", "iPhone 13", "iPhone 12"})

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "iPhone 13", res.Value)
}

func TestResolverEmptyPoolFails(t *testing.T) {
	r := NewResolver(nil, DefaultMinConfidence, zap.NewNop())

	res := r.Resolve("anything", nil)

	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestResolverIsDeterministicAcrossPoolOrder(t *testing.T) {
	r := NewResolver(nil, DefaultMinConfidence, zap.NewNop())

	// Two candidates equally distant from the query; sorted iteration keeps
	// the same winner no matter how the pool arrives.
	first := r.Resolve("abx", []string{"abc", "abd"})
	second := r.Resolve("abx", []string{"abd", "abc"})

	assert.Equal(t, OutcomeResolved, first.Outcome)
	assert.Equal(t, first.Value, second.Value)
	assert.Equal(t, "abc", first.Value)
}

func TestResolveColorExactMatchBypassesOracle(t *testing.T) {
	oracle := new(MockOracle)
	r := NewResolver(oracle, DefaultMinConfidence, zap.NewNop())

	res := r.ResolveColor(context.Background(), "blue", []string{"Blue", "Midnight"})

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "Blue", res.Value)
	oracle.AssertNotCalled(t, "ResolveAmbiguous", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveColorAcceptsConfidentVerdict(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("ResolveAmbiguous", mock.Anything, "песчаный", []string{"белый", "золотистый", "серый", "черный"}).
		Return(OracleVerdict{BestValue: "золотистый", Confidence: 8}, nil)
	r := NewResolver(oracle, DefaultMinConfidence, zap.NewNop())

	res := r.ResolveColor(context.Background(), "песчаный", []string{"черный", "белый", "серый", "золотистый"})

	assert.Equal(t, OutcomeResolved, res.Outcome)
	assert.Equal(t, "золотистый", res.Value)
	oracle.AssertExpectations(t)
}

func TestResolveColorRejectsLowConfidence(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("ResolveAmbiguous", mock.Anything, mock.Anything, mock.Anything).
		Return(OracleVerdict{BestValue: "золотистый", Confidence: 4}, nil)
	r := NewResolver(oracle, DefaultMinConfidence, zap.NewNop())

	res := r.ResolveColor(context.Background(), "песчаный", []string{"белый", "золотистый"})

	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestResolveColorThresholdIsExclusive(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("ResolveAmbiguous", mock.Anything, mock.Anything, mock.Anything).
		Return(OracleVerdict{BestValue: "золотистый", Confidence: 5}, nil)
	r := NewResolver(oracle, DefaultMinConfidence, zap.NewNop())

	// Confidence equal to the gate is not enough.
	res := r.ResolveColor(context.Background(), "песчаный", []string{"белый", "золотистый"})

	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestResolveColorOracleErrorFails(t *testing.T) {
	oracle := new(MockOracle)
	oracle.On("ResolveAmbiguous", mock.Anything, mock.Anything, mock.Anything).
		Return(OracleVerdict{}, assert.AnError)
	r := NewResolver(oracle, DefaultMinConfidence, zap.NewNop())

	res := r.ResolveColor(context.Background(), "песчаный", []string{"белый", "золотистый"})

	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestResolveColorWithoutOracleIsAmbiguous(t *testing.T) {
	r := NewResolver(nil, DefaultMinConfidence, zap.NewNop())

	res := r.ResolveColor(context.Background(), "песчаный", []string{"белый", "золотистый"})

	assert.Equal(t, OutcomeAmbiguous, res.Outcome)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"abc", "abc", 1.0},
		{"ABC", "abc", 1.0},
		{"abc", "abd", 5.0 / 6.0},
		{"abc", "", 0.0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, similarity(tt.a, tt.b), 1e-9, "similarity(%q, %q)", tt.a, tt.b)
	}
}
