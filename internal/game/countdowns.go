package game

import (
	"math"
	"time"
)

// Countdowns are cosmetic. They only emit tick updates; phase changes come from the
// authority alone.

func secondsUntil(deadline, now time.Time) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

// startSelectionCountdown ticks the selection window from its authoritative end time.
func (e *Engine) startSelectionCountdown() {
	r := e.round
	e.timers.Cancel(e.handles.selection)

	tick := func(now time.Time) bool {
		left := secondsUntil(r.SelectionEndsAt, now)
		progress := 1.0
		if r.SelectionLength > 0 {
			progress = 1 - float64(left)/r.SelectionLength.Seconds()
			progress = math.Max(0, math.Min(1, progress))
		}
		e.emit(SelectionTick{SecondsLeft: left, Progress: progress, Closed: left == 0})
		return left > 0
	}

	if !tick(e.clock.Now()) {
		return
	}
	e.handles.selection = e.timers.ScheduleRepeating(time.Second, func(now time.Time) {
		if !tick(now) {
			e.timers.Cancel(e.handles.selection)
		}
	})
}

// startElapsed ticks the time since the round started.
func (e *Engine) startElapsed() {
	r := e.round
	e.timers.Cancel(e.handles.elapsed)
	e.emit(ElapsedTick{Elapsed: e.clock.Since(r.StartedAt).Truncate(time.Second)})
	e.handles.elapsed = e.timers.ScheduleRepeating(time.Second, func(now time.Time) {
		e.emit(ElapsedTick{Elapsed: now.Sub(r.StartedAt).Truncate(time.Second)})
	})
}

// startNextCallCountdown estimates the next draw from the last one. Every
// authoritative call restarts it.
func (e *Engine) startNextCallCountdown() {
	e.timers.Cancel(e.handles.nextCall)
	last, ok := e.round.Ledger.Last()
	if !ok {
		return
	}
	due := last.At.Add(e.opts.NextCallInterval)

	e.emit(NextCallTick{SecondsLeft: secondsUntil(due, e.clock.Now())})
	e.handles.nextCall = e.timers.ScheduleRepeating(time.Second, func(now time.Time) {
		left := secondsUntil(due, now)
		e.emit(NextCallTick{SecondsLeft: left})
		if left == 0 {
			e.timers.Cancel(e.handles.nextCall)
		}
	})
}
