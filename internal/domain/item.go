package domain

import "time"

// ItemKey holds the two independent external identifiers of a wishlist item.
// Either may be empty when the source does not supply it.
type ItemKey struct {
	ProductID  string `json:"product_id,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
}

// Matches reports whether two keys identify the same item.
//
// Matching is OR-based: a shared ProductID or a shared ExternalID is enough.
// The source occasionally reassigns one of the two keys, so requiring both
// would report existing items as new. Empty keys never match.
func (k ItemKey) Matches(other ItemKey) bool {
	if k.ProductID != "" && k.ProductID == other.ProductID {
		return true
	}
	return k.ExternalID != "" && k.ExternalID == other.ExternalID
}

// IsZero reports whether neither identifier is set. Such an item can never
// be matched against the store.
func (k ItemKey) IsZero() bool {
	return k.ProductID == "" && k.ExternalID == ""
}

// Item is a single wishlist entry belonging to a streamer.
type Item struct {
	ID         string    `json:"id,omitempty"`
	StreamerID string    `json:"streamer_id,omitempty"`
	Key        ItemKey   `json:"key"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	ProductURL string    `json:"product_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ContainsMatch reports whether any item in items shares a key with key.
func ContainsMatch(items []Item, key ItemKey) bool {
	for i := range items {
		if items[i].Key.Matches(key) {
			return true
		}
	}
	return false
}

// NewItems returns the fetched items that match none of the stored items.
// The result preserves fetched order and is never nil.
func NewItems(stored, fetched []Item) []Item {
	out := make([]Item, 0)
	for _, it := range fetched {
		if !ContainsMatch(stored, it.Key) {
			out = append(out, it)
		}
	}
	return out
}
