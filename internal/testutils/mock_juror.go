package testutils

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ahrav/go-jury/internal/domain"
	"github.com/ahrav/go-jury/internal/ports"
)

var _ ports.Juror = (*MockJuror)(nil)

// MockJuror returns a fixed result or error. Delay, when set, is waited
// before returning so tests can force out-of-order completion.
type MockJuror struct {
	JurorName   string
	JurorWeight float64
	JurorModel  string
	Result      ports.JurorResult
	Err         error
	Delay       time.Duration

	calls atomic.Int32
}

// NewMockJuror creates a juror with weight 1 that returns scores.
func NewMockJuror(name string, scores map[string]map[string]float64) *MockJuror {
	return &MockJuror{
		JurorName:   name,
		JurorWeight: 1,
		JurorModel:  "mock-model",
		Result:      ports.JurorResult{Scores: scores},
	}
}

// Name implements ports.Juror.
func (j *MockJuror) Name() string { return j.JurorName }

// Weight implements ports.Juror.
func (j *MockJuror) Weight() float64 { return j.JurorWeight }

// Model implements ports.Juror.
func (j *MockJuror) Model() string { return j.JurorModel }

// Calls returns how many times Evaluate ran.
func (j *MockJuror) Calls() int { return int(j.calls.Load()) }

// Evaluate implements ports.Juror.
func (j *MockJuror) Evaluate(
	ctx context.Context,
	_ string,
	_ []domain.ResponseCandidate,
	_ []domain.Criterion,
) (ports.JurorResult, error) {
	j.calls.Add(1)
	if j.Delay > 0 {
		select {
		case <-time.After(j.Delay):
		case <-ctx.Done():
			return ports.JurorResult{}, ctx.Err()
		}
	}
	if j.Err != nil {
		return ports.JurorResult{}, j.Err
	}
	return j.Result, nil
}
