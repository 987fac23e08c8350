package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-aggregator/internal/jobs"
)

func listings(ids ...string) *jobs.Listings {
	l := jobs.NewListings()
	for _, id := range ids {
		l.Items = append(l.Items, &jobs.Listing{ID: id, Platform: jobs.Upwork})
	}
	return l
}

func TestRunOnceReportsOnlyNewListings(t *testing.T) {
	batches := []*jobs.Listings{listings("1", "2"), listings("2", "3"), listings("1", "3")}
	var notified [][]string

	s := New("", func(context.Context) (*jobs.Listings, error) {
		next := batches[0]
		batches = batches[1:]
		return next, nil
	}, func(_ context.Context, fresh *jobs.Listings) {
		var ids []string
		for _, item := range fresh.Items {
			ids = append(ids, item.ID)
		}
		notified = append(notified, ids)
	}, nil)

	counts := []int{}
	for i := 0; i < 3; i++ {
		counts = append(counts, s.RunOnce(context.Background()).Len())
	}

	if counts[0] != 2 || counts[1] != 1 || counts[2] != 0 {
		t.Fatalf("unexpected fresh counts %v", counts)
	}
	if len(notified) != 2 || notified[1][0] != "3" {
		t.Fatalf("unexpected notifications %v", notified)
	}
}

func TestSeedSkipsKnownListings(t *testing.T) {
	s := New("", func(context.Context) (*jobs.Listings, error) {
		return listings("1", "2"), nil
	}, nil, nil)
	s.Seed([]string{"upwork:1"})

	fresh := s.RunOnce(context.Background())
	if fresh.Len() != 1 || fresh.Items[0].ID != "2" {
		t.Fatalf("unexpected fresh listings %+v", fresh.Items)
	}
}

func TestCycleErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	s := New("", func(context.Context) (*jobs.Listings, error) {
		return nil, errors.New("resume missing")
	}, nil, zap.New(core))

	if s.RunOnce(context.Background()).Len() != 0 {
		t.Fatal("expected no listings")
	}
	if logs.FilterMessage("watch cycle failed").Len() != 1 {
		t.Fatalf("expected error log, got %v", logs.All())
	}
}

func TestStartRunsImmediately(t *testing.T) {
	var once sync.Once
	ran := make(chan struct{})

	s := New("@every 1h", func(context.Context) (*jobs.Listings, error) {
		once.Do(func() { close(ran) })
		return listings(), nil
	}, nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate cycle")
	}
}

func TestCyclesNeverOverlap(t *testing.T) {
	var active, maxActive atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	s := New("@every 1s", func(context.Context) (*jobs.Listings, error) {
		n := active.Add(1)
		defer active.Add(-1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return listings(), nil
	}, nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate cycle")
	}

	// the first cron tick fires while the immediate cycle is still blocked
	time.Sleep(1500 * time.Millisecond)
	close(release)
	s.Stop()

	if got := maxActive.Load(); got != 1 {
		t.Fatalf("expected cycles to run one at a time, got %d concurrent", got)
	}
}

func TestStopWaitsForImmediateCycle(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	s := New("@every 1h", func(context.Context) (*jobs.Listings, error) {
		close(started)
		<-release
		finished.Store(true)
		return listings(), nil
	}, nil, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a cycle was running")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the cycle finished")
	}
	if !finished.Load() {
		t.Fatal("cycle did not finish")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := New("every now and then", func(context.Context) (*jobs.Listings, error) { return nil, nil }, nil, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}
