package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Transaction runs a sequence of operations across repositories. When one
// fails, the compensations of the operations that already ran are executed
// in reverse order.
type Transaction struct {
	steps  []step
	logger zerolog.Logger
}

type step struct {
	name       string
	fn         func(context.Context) error
	compensate func(context.Context) error
}

func NewTransaction(logger zerolog.Logger) *Transaction {
	return &Transaction{logger: logger}
}

// AddOperation appends an operation. compensate may be nil.
func (t *Transaction) AddOperation(name string, fn, compensate func(context.Context) error) {
	t.steps = append(t.steps, step{name: name, fn: fn, compensate: compensate})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, s := range t.steps {
		if err := s.fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", s.name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	for i := failedAt - 1; i >= 0; i-- {
		s := t.steps[i]
		if s.compensate == nil {
			continue
		}
		if err := s.compensate(ctx); err != nil {
			t.logger.Error().Err(err).Str("operation", s.name).Msg("⚠️ compensation failed, data may be inconsistent")
		}
	}
}
