// Package policy decides whether a freshly fetched wishlist snapshot can be
// trusted, and which of its items are new.
package policy

import "github.com/notifyhub/wishlist-watcher/internal/domain"

// Guard identifies the anomaly check that rejected a snapshot.
type Guard string

const (
	GuardNone             Guard = ""
	GuardEmptyResult      Guard = "empty_result"
	GuardSevereShrink     Guard = "severe_shrink"
	GuardProportionalDrop Guard = "proportional_drop"
)

// Thresholds parameterise the anomaly guards and cold-start detection.
type Thresholds struct {
	// Guards only apply when the stored list is strictly larger than this.
	MinStoredForGuards int
	// A non-empty fetch strictly smaller than this trips the severe-shrink guard.
	SevereShrinkBelow int
	// A fractional drop strictly above this trips the proportional-drop guard.
	MaxDropRatio float64
	// An initial sync with strictly more items than this is not notified.
	ColdStartMinItems int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinStoredForGuards: 10,
		SevereShrinkBelow:  5,
		MaxDropRatio:       0.3,
		ColdStartMinItems:  2,
	}
}

// Decision is the verdict for one check.
type Decision struct {
	// Skip is non-empty when a guard rejected the snapshot; nothing may be
	// persisted or notified in that case.
	Skip     Guard
	NewItems []domain.Item
	// ColdStart marks an initial sync: persist, but do not notify.
	ColdStart bool
}

// Trusted reports whether the snapshot passed every guard.
func (d Decision) Trusted() bool { return d.Skip == GuardNone }

// ShouldNotify reports whether recipients should hear about NewItems.
func (d Decision) ShouldNotify() bool {
	return d.Trusted() && !d.ColdStart && len(d.NewItems) > 0
}

// Evaluate applies the anomaly guards in order and, if none trips, computes
// the new items.
func Evaluate(stored, fetched []domain.Item, th Thresholds) Decision {
	if g := checkGuards(len(stored), len(fetched), th); g != GuardNone {
		return Decision{Skip: g}
	}

	return Decision{
		NewItems:  Diff(stored, fetched),
		ColdStart: len(stored) == 0 && len(fetched) > th.ColdStartMinItems,
	}
}

func checkGuards(stored, fetched int, th Thresholds) Guard {
	if stored <= th.MinStoredForGuards {
		return GuardNone
	}
	if fetched == 0 {
		return GuardEmptyResult
	}
	if fetched < th.SevereShrinkBelow {
		return GuardSevereShrink
	}
	if drop := float64(stored-fetched) / float64(stored); drop > th.MaxDropRatio {
		return GuardProportionalDrop
	}
	return GuardNone
}

// Diff returns the fetched items whose keys match no stored item.
func Diff(stored, fetched []domain.Item) []domain.Item {
	return domain.NewItems(stored, fetched)
}
