package watch

import (
	"context"
	"time"
)

// debouncer coalesces trigger bursts into one firing after a quiet period.
// A trigger while a build is already pending is absorbed, never queued twice.
type debouncer struct {
	interval time.Duration
	trigger  chan struct{}
	fire     chan struct{}
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		trigger:  make(chan struct{}, 1),
		fire:     make(chan struct{}, 1),
	}
}

// Trigger requests a firing; duplicates while one is pending are dropped.
func (d *debouncer) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Fired returns the channel that receives one value per debounced burst.
func (d *debouncer) Fired() <-chan struct{} {
	return d.fire
}

// Run owns the debounce timer until the context ends.
func (d *debouncer) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-d.trigger:
			if timer == nil {
				timer = time.NewTimer(d.interval)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(d.interval)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			select {
			case d.fire <- struct{}{}:
			default:
			}
		}
	}
}
