package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xavierca1/followup-core/internal/rules"
)

var passTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// MockRunner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunAll(ctx context.Context, now time.Time) []rules.Report {
	args := m.Called(ctx, now)
	return args.Get(0).([]rules.Report)
}

// MockLeases
type MockLeases struct {
	mock.Mock
}

func (m *MockLeases) TryAcquire(ctx context.Context, name, holder string, now time.Time, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, name, holder, now, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockLeases) Release(ctx context.Context, name, holder string) error {
	args := m.Called(ctx, name, holder)
	return args.Error(0)
}

func newScheduler(runner *MockRunner, leases *MockLeases) *RuleScheduler {
	return NewRuleScheduler(runner, leases, time.Hour, zerolog.Nop()).
		WithClock(func() time.Time { return passTime })
}

func TestRunOnceRunsWithLease(t *testing.T) {
	runner := new(MockRunner)
	leases := new(MockLeases)
	s := newScheduler(runner, leases)

	leases.On("TryAcquire", mock.Anything, LeaseName, s.holder, passTime, time.Hour).Return(true, nil)
	runner.On("RunAll", mock.Anything, passTime).Return([]rules.Report{
		{Rule: rules.RuleExpireOverdue, Applied: 2},
		{Rule: rules.RuleDayBeforeReminder, Err: errors.New("smtp down")},
	})

	assert.True(t, s.RunOnce(context.Background()))
	runner.AssertExpectations(t)
}

func TestRunOnceSkipsWhenLeaseHeld(t *testing.T) {
	runner := new(MockRunner)
	leases := new(MockLeases)
	s := newScheduler(runner, leases)

	leases.On("TryAcquire", mock.Anything, LeaseName, mock.Anything, passTime, time.Hour).Return(false, nil)

	assert.False(t, s.RunOnce(context.Background()))
	runner.AssertNotCalled(t, "RunAll", mock.Anything, mock.Anything)
}

func TestRunOnceSkipsOnLeaseError(t *testing.T) {
	runner := new(MockRunner)
	leases := new(MockLeases)
	s := newScheduler(runner, leases)

	leases.On("TryAcquire", mock.Anything, LeaseName, mock.Anything, passTime, time.Hour).Return(false, errors.New("db gone"))

	assert.False(t, s.RunOnce(context.Background()))
	runner.AssertNotCalled(t, "RunAll", mock.Anything, mock.Anything)
}

func TestStartReleasesLeaseOnShutdown(t *testing.T) {
	runner := new(MockRunner)
	leases := new(MockLeases)
	s := newScheduler(runner, leases)

	leases.On("TryAcquire", mock.Anything, LeaseName, s.holder, passTime, time.Hour).Return(true, nil)
	ran := make(chan struct{})
	runner.On("RunAll", mock.Anything, passTime).Return([]rules.Report{}).Run(func(mock.Arguments) { close(ran) })
	leases.On("Release", mock.Anything, LeaseName, s.holder).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("first pass did not run")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	leases.AssertCalled(t, "Release", mock.Anything, LeaseName, s.holder)
}
