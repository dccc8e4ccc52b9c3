package worker

import "time"

// ActiveWindow is the daily UTC span during which new checks are scheduled.
// StartHour is inclusive, EndHour exclusive. A window whose start is after its
// end wraps past midnight; equal hours mean always active.
type ActiveWindow struct {
	StartHour int
	EndHour   int
}

// DefaultActiveWindow leaves a nightly blackout between 01:00 and 04:00 UTC.
func DefaultActiveWindow() ActiveWindow {
	return ActiveWindow{StartHour: 4, EndHour: 1}
}

func (w ActiveWindow) Contains(t time.Time) bool {
	h := t.UTC().Hour()
	switch {
	case w.StartHour == w.EndHour:
		return true
	case w.StartHour < w.EndHour:
		return h >= w.StartHour && h < w.EndHour
	default:
		return h >= w.StartHour || h < w.EndHour
	}
}
