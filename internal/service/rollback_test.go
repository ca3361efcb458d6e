package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func counterTx(state *int, commitErr error, restored *bool) Optimistic[int] {
	return Optimistic[int]{
		Snapshot: func() int { return *state },
		Apply:    func() { *state++ },
		Commit:   func(context.Context) error { return commitErr },
		Restore: func(v int) {
			*restored = true
			*state = v
		},
	}
}

func TestWithRollback_CommitSucceeds(t *testing.T) {
	state, restored := 1, false
	assert.NoError(t, WithRollback(context.Background(), counterTx(&state, nil, &restored)))
	assert.Equal(t, 2, state)
	assert.False(t, restored)
}

func TestWithRollback_CommitFails(t *testing.T) {
	boom := errors.New("boom")
	state, restored := 1, false
	err := WithRollback(context.Background(), counterTx(&state, boom, &restored))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, state)
	assert.True(t, restored)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.cartMutation("add", nil)
		m.pushEvent("applied")
		m.checkout("cash", errors.New("x"))
		m.authenticated(true)
	})
}

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.cartMutation("add", nil)
	m.authenticated(true)

	families, err := reg.Gather()
	assert.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "feastflow_cart_mutations_total")
	assert.Contains(t, names, "feastflow_session_authenticated")
}
