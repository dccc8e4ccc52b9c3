package domain

// RecipientKind distinguishes direct users from group channels.
type RecipientKind string

const (
	RecipientDirect RecipientKind = "direct"
	RecipientGroup  RecipientKind = "group"
)

// Recipient is a delivery target for new-item messages.
type Recipient struct {
	ID      string        `json:"id"`
	Kind    RecipientKind `json:"kind"`
	Address string        `json:"address"`
}

// UserSettings is a user's per-streamer notification preference.
type UserSettings struct {
	Enabled       bool `json:"enabled"`
	DirectMessage bool `json:"direct_message"`
}

// DefaultUserSettings applies when a user never toggled anything for a streamer.
func DefaultUserSettings() UserSettings {
	return UserSettings{Enabled: true, DirectMessage: true}
}

// AllowsDirect reports whether the user wants direct messages for the streamer.
func (s UserSettings) AllowsDirect() bool {
	return s.Enabled && s.DirectMessage
}

// GroupSettings is a group's per-streamer toggle. Groups are opt-in.
type GroupSettings struct {
	Enabled bool `json:"enabled"`
}

func DefaultGroupSettings() GroupSettings {
	return GroupSettings{Enabled: false}
}
