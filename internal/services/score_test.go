package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRecordShortlistAppearance_MeanTracksHistory(t *testing.T) {
	f := newFixture()
	c := f.addContractor("clearing", 0)
	ctx := context.Background()

	overalls := []float64{80, 60, 100, 0}
	var sum float64
	for i, o := range overalls {
		p, err := f.scores.RecordShortlistAppearance(ctx, c.ID, uuid.New(), o)
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		sum += o / 100
		if want := sum / float64(i+1); !approx(p.AIScore, want) {
			t.Fatalf("after %d appends ai_score = %v, want %v", i+1, p.AIScore, want)
		}
		if !approx(p.LatestJobAIScore, o/100) {
			t.Fatalf("latest = %v, want %v", p.LatestJobAIScore, o/100)
		}
		if len(p.History) != i+1 {
			t.Fatalf("history len = %d, want %d", len(p.History), i+1)
		}
	}

	stored := f.store.contractor(c.ID)
	if !approx(stored.AIScore, sum/4) {
		t.Errorf("stored ai_score = %v, want %v", stored.AIScore, sum/4)
	}
}

func TestRecordShortlistAppearance_ClampsOutOfRange(t *testing.T) {
	f := newFixture()
	c := f.addContractor("clearing", 0)

	p, err := f.scores.RecordShortlistAppearance(context.Background(), c.ID, uuid.New(), 150)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if p.AIScore != 1 || p.History[0].Score != 1 {
		t.Errorf("score not clamped to 1: %+v", p)
	}
}

func TestRecordShortlistAppearance_ConcurrentAppendsKeepMean(t *testing.T) {
	f := newFixture()
	c := f.addContractor("clearing", 0)
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := f.scores.RecordShortlistAppearance(ctx, c.ID, uuid.New(), float64(i*4)); err != nil {
				t.Errorf("record: %v", err)
			}
		}(i)
	}
	wg.Wait()

	p, err := f.scores.GetProfile(ctx, c.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(p.History) != n {
		t.Fatalf("history len = %d, want %d", len(p.History), n)
	}
	var sum float64
	for _, e := range p.History {
		sum += e.Score
	}
	if !approx(p.AIScore, sum/n) {
		t.Errorf("ai_score = %v, want mean %v", p.AIScore, sum/n)
	}
	for i := 1; i < len(p.History); i++ {
		if p.History[i].Seq <= p.History[i-1].Seq {
			t.Fatalf("history out of order at %d", i)
		}
	}
}

func TestGetProfile(t *testing.T) {
	f := newFixture()
	c := f.addContractor("clearing", 0)
	ctx := context.Background()

	p, err := f.scores.GetProfile(ctx, c.ID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.History == nil || len(p.History) != 0 || p.AIScore != 0 {
		t.Errorf("unscored contractor profile = %+v", p)
	}

	if _, err := f.scores.GetProfile(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown contractor: got %v, want ErrNotFound", err)
	}
	if _, err := f.scores.RecordShortlistAppearance(ctx, uuid.New(), uuid.New(), 50); !errors.Is(err, ErrNotFound) {
		t.Errorf("record unknown contractor: got %v, want ErrNotFound", err)
	}
}
