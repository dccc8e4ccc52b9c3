package policy_test

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/policy"
)

func items(prefix string, n int) []domain.Item {
	out := make([]domain.Item, n)
	for i := range out {
		out[i] = domain.Item{Key: domain.ItemKey{ProductID: fmt.Sprintf("%s%d", prefix, i)}}
	}
	return out
}

func TestEvaluate_Guards(t *testing.T) {
	th := policy.DefaultThresholds()

	tests := []struct {
		name    string
		stored  int
		fetched int
		want    policy.Guard
	}{
		{"empty result above threshold", 11, 0, policy.GuardEmptyResult},
		{"empty result at threshold is not guarded", 10, 0, policy.GuardNone},
		{"severe shrink below 5", 11, 4, policy.GuardSevereShrink},
		{"five items passes severe shrink but not proportional drop", 11, 5, policy.GuardProportionalDrop},
		{"drop 0.2727 passes", 11, 8, policy.GuardNone},
		{"drop 0.3636 trips", 11, 7, policy.GuardProportionalDrop},
		{"growth never trips", 11, 20, policy.GuardNone},
		{"small store never trips", 3, 1, policy.GuardNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stored := items("s", tc.stored)
			fetched := items("s", tc.fetched)
			d := policy.Evaluate(stored, fetched, th)
			if d.Skip != tc.want {
				t.Fatalf("stored=%d fetched=%d: got guard %q, want %q", tc.stored, tc.fetched, d.Skip, tc.want)
			}
			if !d.Trusted() && len(d.NewItems) != 0 {
				t.Fatal("a skipped decision must not carry new items")
			}
		})
	}
}

func TestEvaluate_SevereShrinkBoundaryIsolated(t *testing.T) {
	// With the proportional guard disabled, 5 items must pass the shrink guard.
	th := policy.DefaultThresholds()
	th.MaxDropRatio = 1

	if d := policy.Evaluate(items("s", 11), items("s", 5), th); d.Skip != policy.GuardNone {
		t.Fatalf("expected 5 fetched items to pass, got %q", d.Skip)
	}
	if d := policy.Evaluate(items("s", 11), items("s", 4), th); d.Skip != policy.GuardSevereShrink {
		t.Fatalf("expected severe shrink, got %q", d.Skip)
	}
}

func TestEvaluate_ColdStart(t *testing.T) {
	th := policy.DefaultThresholds()

	d := policy.Evaluate(nil, items("n", 3), th)
	if !d.Trusted() || !d.ColdStart {
		t.Fatalf("expected trusted cold start, got %+v", d)
	}
	if len(d.NewItems) != 3 {
		t.Fatalf("expected 3 new items to persist, got %d", len(d.NewItems))
	}
	if d.ShouldNotify() {
		t.Fatal("cold start must not notify")
	}

	// Two items on an empty store is treated as a genuine update.
	d = policy.Evaluate(nil, items("n", 2), th)
	if d.ColdStart || !d.ShouldNotify() {
		t.Fatalf("expected notification for 2 initial items, got %+v", d)
	}
}

func TestEvaluate_NewItems(t *testing.T) {
	stored := []domain.Item{
		{Key: domain.ItemKey{ProductID: "p1"}},
		{Key: domain.ItemKey{ProductID: "p2"}},
	}
	fetched := []domain.Item{
		{Key: domain.ItemKey{ProductID: "p1"}},
		{Key: domain.ItemKey{ProductID: "p2"}},
		{Key: domain.ItemKey{ProductID: "p3"}},
	}

	d := policy.Evaluate(stored, fetched, policy.DefaultThresholds())
	if !d.ShouldNotify() {
		t.Fatalf("expected notification, got %+v", d)
	}
	if len(d.NewItems) != 1 || d.NewItems[0].Key.ProductID != "p3" {
		t.Fatalf("expected [p3], got %+v", d.NewItems)
	}
}

func TestEvaluate_UnchangedDoesNotNotify(t *testing.T) {
	stored := items("s", 4)
	d := policy.Evaluate(stored, items("s", 4), policy.DefaultThresholds())
	if d.ShouldNotify() || len(d.NewItems) != 0 {
		t.Fatalf("expected no new items, got %+v", d)
	}
}

func TestDiff_Idempotent(t *testing.T) {
	stored := items("s", 5)
	fetched := append(items("s", 5), items("x", 3)...)

	first := policy.Diff(stored, fetched)
	second := policy.Diff(stored, fetched)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Diff is not idempotent: %+v vs %+v", first, second)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 new items, got %d", len(first))
	}
}
