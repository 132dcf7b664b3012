package wizard

import (
	"context"
	"time"
)

// ProgressCaptions are shown in order while a report is generated.
var ProgressCaptions = []string{
	"Analysing risk metrics…",
	"Mapping EU AI Act obligations…",
	"Checking NIST AI RMF controls…",
	"Generating AI analysis…",
	"Compiling audit report…",
}

// Pacer holds each caption for a fixed delay. It reflects no real backend phase.
type Pacer struct {
	Captions []string
	Delay    time.Duration

	// Sleep defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{Captions: ProgressCaptions, Delay: delay, Sleep: sleep}
}

// Run calls onStep for each caption and waits Delay after it.
func (p *Pacer) Run(ctx context.Context, onStep func(step int, caption string)) error {
	sleepFn := p.Sleep
	if sleepFn == nil {
		sleepFn = sleep
	}
	for i, c := range p.Captions {
		if onStep != nil {
			onStep(i, c)
		}
		if err := sleepFn(ctx, p.Delay); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
