//go:build property

package debounce

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDebounceProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("a burst inside the quiet period runs once with the last request", prop.ForAll(
		func(n int, gapMs int) bool {
			delay := 500 * time.Millisecond
			gap := time.Duration(gapMs) * time.Millisecond // always < delay

			sched := NewManualScheduler()
			rec := &recorder{}
			d := New(delay, rec.run, WithScheduler(sched))
			defer d.Stop()

			var last string
			for i := 0; i < n; i++ {
				last = string(rune('a' + i%26))
				d.Schedule(last)
				sched.Advance(gap)
			}
			sched.Advance(delay)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := d.Wait(ctx); err != nil {
				return false
			}

			calls := rec.snapshot()
			return len(calls) == 1 && calls[0] == last
		},
		gen.IntRange(1, 50),
		gen.IntRange(0, 499),
	))

	properties.TestingRun(t)
}
