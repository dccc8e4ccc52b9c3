package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
	"github.com/notifyhub/wishlist-watcher/internal/notifier"
	"github.com/notifyhub/wishlist-watcher/internal/repository"
)

// FanoutResult counts what happened to each resolved recipient.
type FanoutResult struct {
	Sent    int
	Skipped int
	Failed  int
}

// Fanout resolves the recipients of a streamer's new items and delivers one
// message to each. A failing recipient never blocks the others.
type Fanout struct {
	recipients  repository.RecipientRepository
	sink        notifier.Sink
	urlTemplate string
	logger      *zap.Logger

	// onDelivered is optional (nil = no-op); ok reports delivery success.
	onDelivered func(kind domain.RecipientKind, ok bool)
}

// NewFanout builds a Fanout. urlTemplate is a fmt pattern receiving the
// streamer nickname, e.g. "https://example.com/%s"; empty disables links.
func NewFanout(
	recipients repository.RecipientRepository,
	sink notifier.Sink,
	urlTemplate string,
	logger *zap.Logger,
	onDelivered func(domain.RecipientKind, bool),
) *Fanout {
	if onDelivered == nil {
		onDelivered = func(domain.RecipientKind, bool) {}
	}
	return &Fanout{
		recipients:  recipients,
		sink:        sink,
		urlTemplate: urlTemplate,
		logger:      logger,
		onDelivered: onDelivered,
	}
}

// Notify delivers items to every direct user and group that opted in.
//
// Direct users default to enabled when they have no settings record; groups
// default to disabled and must opt in explicitly.
func (f *Fanout) Notify(ctx context.Context, s domain.Streamer, items []domain.Item) FanoutResult {
	var res FanoutResult
	log := f.logger.With(zap.String("streamer_id", s.ID), zap.String("nickname", s.Nickname))

	base := notifier.Delivery{
		StreamerName: s.Name(),
		StreamerURL:  f.streamerURL(s),
		Items:        items,
	}

	users, err := f.recipients.ListDirect(ctx, s.ID)
	if err != nil {
		log.Error("failed to list direct recipients", zap.Error(err))
	}
	for _, u := range users {
		settings, err := f.recipients.GetUserSettings(ctx, u.ID, s.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			settings = domain.DefaultUserSettings()
		case err != nil:
			log.Error("failed to load user settings", zap.String("user_id", u.ID), zap.Error(err))
			res.Failed++
			continue
		}
		if !settings.AllowsDirect() {
			res.Skipped++
			continue
		}
		f.deliver(ctx, log, &res, u, base, true)
	}

	groups, err := f.recipients.ListGroups(ctx, s.ID)
	if err != nil {
		log.Error("failed to list group recipients", zap.Error(err))
	}
	for _, g := range groups {
		settings, err := f.recipients.GetGroupSettings(ctx, g.ID, s.ID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			settings = domain.DefaultGroupSettings()
		case err != nil:
			log.Error("failed to load group settings", zap.String("group_id", g.ID), zap.Error(err))
			res.Failed++
			continue
		}
		if !settings.Enabled {
			res.Skipped++
			continue
		}
		f.deliver(ctx, log, &res, g, base, false)
	}

	return res
}

func (f *Fanout) deliver(
	ctx context.Context,
	log *zap.Logger,
	res *FanoutResult,
	r domain.Recipient,
	base notifier.Delivery,
	direct bool,
) {
	d := base
	d.Address = r.Address
	d.Direct = direct

	if err := f.sink.Deliver(ctx, d); err != nil {
		log.Warn("delivery failed",
			zap.String("recipient_id", r.ID),
			zap.String("kind", string(r.Kind)),
			zap.Error(err),
		)
		res.Failed++
		f.onDelivered(r.Kind, false)
		return
	}
	res.Sent++
	f.onDelivered(r.Kind, true)
}

func (f *Fanout) streamerURL(s domain.Streamer) string {
	if f.urlTemplate == "" {
		return ""
	}
	if !strings.Contains(f.urlTemplate, "%s") {
		return f.urlTemplate
	}
	return fmt.Sprintf(f.urlTemplate, s.Nickname)
}
