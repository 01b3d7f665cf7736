package quizimages

import (
	"context"
	"testing"
	"time"
)

func TestPacerSpacesCalls(t *testing.T) {
	p := NewPacer(20 * time.Millisecond)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Errorf("3 calls took %s, want at least two intervals", elapsed)
	}
}

func TestPacerDisabledAndNil(t *testing.T) {
	var nilPacer *Pacer
	if err := nilPacer.Wait(context.Background()); err != nil {
		t.Error(err)
	}
	p := NewPacer(0)
	for i := 0; i < 100; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
}

func TestPacerCancelled(t *testing.T) {
	p := NewPacer(time.Hour)
	_ = p.Wait(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("cancelled wait should fail")
	}
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepCtx(ctx, time.Hour); err == nil {
		t.Error("cancelled sleep should fail")
	}
	if err := sleepCtx(context.Background(), 0); err != nil {
		t.Error(err)
	}
}
