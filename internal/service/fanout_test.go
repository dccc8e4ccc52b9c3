package service_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
	"github.com/notifyhub/wishlist-watcher/internal/service"
)

func TestFanout_AppliesSettingsAndDefaults(t *testing.T) {
	ctx := context.Background()
	recipients := repository.NewMockRecipientRepository()
	sink := &recordingSink{failFor: map[string]bool{}}

	recipients.AddDirect(streamer.ID, domain.Recipient{ID: "u-default", Address: "1"})
	recipients.AddDirect(streamer.ID, domain.Recipient{ID: "u-off", Address: "2"})
	recipients.AddDirect(streamer.ID, domain.Recipient{ID: "u-nodm", Address: "3"})
	recipients.AddGroup(streamer.ID, domain.Recipient{ID: "g-default", Address: "-10"})
	recipients.AddGroup(streamer.ID, domain.Recipient{ID: "g-on", Address: "-20"})

	_ = recipients.SetUserSettings(ctx, "u-off", streamer.ID, domain.UserSettings{Enabled: false, DirectMessage: true})
	_ = recipients.SetUserSettings(ctx, "u-nodm", streamer.ID, domain.UserSettings{Enabled: true, DirectMessage: false})
	_ = recipients.SetGroupSettings(ctx, "g-on", streamer.ID, domain.GroupSettings{Enabled: true})

	var delivered []domain.RecipientKind
	fanout := service.NewFanout(recipients, sink, "", zap.NewNop(), func(k domain.RecipientKind, ok bool) {
		if ok {
			delivered = append(delivered, k)
		}
	})

	res := fanout.Notify(ctx, streamer, []domain.Item{product("p1")})
	if res.Sent != 2 || res.Skipped != 3 || res.Failed != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := sink.addresses(); !slices.Equal(got, []string{"1", "-20"}) {
		t.Fatalf("unexpected addresses %v", got)
	}
	if !slices.Equal(delivered, []domain.RecipientKind{domain.RecipientDirect, domain.RecipientGroup}) {
		t.Fatalf("unexpected hook kinds %v", delivered)
	}
	if sink.delivered[1].Direct {
		t.Fatal("expected group delivery to be non-direct")
	}
	if sink.delivered[0].StreamerURL != "" {
		t.Fatal("expected empty streamer url without a template")
	}
}

func TestFanout_IsolatesFailures(t *testing.T) {
	recipients := repository.NewMockRecipientRepository()
	sink := &recordingSink{failFor: map[string]bool{"2": true}}
	for _, id := range []string{"1", "2", "3"} {
		recipients.AddDirect(streamer.ID, domain.Recipient{ID: "u" + id, Address: id})
	}

	fanout := service.NewFanout(recipients, sink, "", zap.NewNop(), nil)
	res := fanout.Notify(context.Background(), streamer, []domain.Item{product("p1")})

	if res.Sent != 2 || res.Failed != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := sink.addresses(); !slices.Equal(got, []string{"1", "3"}) {
		t.Fatalf("expected delivery to continue past failure, got %v", got)
	}
}

func TestFanout_DirectListFailureStillReachesGroups(t *testing.T) {
	ctx := context.Background()
	recipients := repository.NewMockRecipientRepository()
	recipients.ListDirectErr = errors.New("db down")
	recipients.AddGroup(streamer.ID, domain.Recipient{ID: "g1", Address: "-1"})
	_ = recipients.SetGroupSettings(ctx, "g1", streamer.ID, domain.GroupSettings{Enabled: true})
	sink := &recordingSink{failFor: map[string]bool{}}

	fanout := service.NewFanout(recipients, sink, "", zap.NewNop(), nil)
	res := fanout.Notify(ctx, streamer, []domain.Item{product("p1")})

	if res.Sent != 1 {
		t.Fatalf("expected group delivery despite direct failure, got %+v", res)
	}
}
