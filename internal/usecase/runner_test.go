package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

func notifyOnlyOrchestrator(transport *fakeTransport, reporter *fakeReporter) *Orchestrator {
	return NewOrchestrator(OrchestratorDeps{
		Policy:     Policy{NotifyOnly: []domain.FilingType{domain.FilingS8}},
		Dispatcher: NewNotificationDispatcher([]ports.MessageTransport{transport}, DispatcherOptions{}),
		Reporter:   reporter,
	})
}

func s8Events(n int) []domain.Event {
	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{
			Entry: domain.FilingEntry{GUID: fmt.Sprintf("g-%02d", i), Title: "S-8 - ACME Corp", Date: day(i)},
			Feed:  acme,
		}
	}
	return events
}

func TestRunnerProcessesEveryEventWithinConcurrencyLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	transport := &fakeTransport{send: func(domain.NotificationMessage) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
	}}
	source := &sliceSource{events: s8Events(12)}
	runner := NewRunner(source, notifyOnlyOrchestrator(transport, &fakeReporter{}), RunnerOptions{Concurrency: 3})

	require.NoError(t, runner.Run(context.Background()))
	require.Len(t, transport.messages(), 12)
	require.Len(t, source.ackedGUIDs(), 12)
	require.LessOrEqual(t, peak.Load(), int32(3))
}

func TestRunnerIsolatesPanics(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{send: func(msg domain.NotificationMessage) {
		if strings.HasSuffix(msg.Subject, "S-8 - boom") {
			panic("transport exploded")
		}
	}}
	reporter := &fakeReporter{}
	events := s8Events(3)
	events[1].Entry.Title = "S-8 - boom"
	source := &sliceSource{events: events}

	runner := NewRunner(source, notifyOnlyOrchestrator(transport, reporter), RunnerOptions{Concurrency: 2})
	require.NoError(t, runner.Run(context.Background()))

	require.Len(t, transport.messages(), 2)
	reports := reporter.all()
	require.Len(t, reports, 1)
	require.Equal(t, "g-01", reports[0].guid)
	require.ErrorContains(t, reports[0].err, "transport exploded")
}

func TestRunnerSurvivesReceiveErrors(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	source := &sliceSource{events: s8Events(2), errs: []error{errors.New("broker unavailable")}}
	runner := NewRunner(source, notifyOnlyOrchestrator(transport, &fakeReporter{}), RunnerOptions{})
	runner.receiveBackoff = time.Millisecond

	require.NoError(t, runner.Run(context.Background()))
	require.Len(t, transport.messages(), 2)
}

func TestRunnerStopsOnBrokenSource(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	source := &sliceSource{
		events: s8Events(1),
		broken: fmt.Errorf("%w: read line 2: token too long", ports.ErrSourceBroken),
	}
	runner := NewRunner(source, notifyOnlyOrchestrator(transport, &fakeReporter{}), RunnerOptions{})
	runner.receiveBackoff = time.Hour

	done := make(chan error, 1)
	go func() { done <- runner.Run(context.Background()) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ports.ErrSourceBroken)
	case <-time.After(5 * time.Second):
		t.Fatal("runner kept polling a broken source")
	}
	require.Len(t, transport.messages(), 1)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(blockingSource{}, notifyOnlyOrchestrator(&fakeTransport{}, &fakeReporter{}), RunnerOptions{})

	done := make(chan error, 1)
	go func() { done <- runner.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunnerAfterEvent(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		outcomes = map[string]error{}
	)
	transport := &fakeTransport{err: errors.New("down")}
	runner := NewRunner(&sliceSource{events: s8Events(2)}, notifyOnlyOrchestrator(transport, &fakeReporter{}), RunnerOptions{
		AfterEvent: func(_ context.Context, ev domain.Event, err error) {
			mu.Lock()
			defer mu.Unlock()
			outcomes[ev.Entry.GUID] = err
		},
	})

	require.NoError(t, runner.Run(context.Background()))
	require.Len(t, outcomes, 2)
	require.ErrorIs(t, outcomes["g-00"], domain.ErrDispatch)
}
