package notifier

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// MaxListedItems caps how many new items a single message lists.
const MaxListedItems = 5

// Delivery is one "new items" message for one recipient.
type Delivery struct {
	Address      string
	StreamerName string
	StreamerURL  string
	Items        []domain.Item
	Direct       bool
}

// Sink abstracts delivery to an external messaging service.
// Mocking this interface in tests gives full control over delivery
// behaviour without real network calls.
type Sink interface {
	Deliver(ctx context.Context, d Delivery) error
}

// FormatMessage renders d as Telegram-flavoured HTML. Only the first
// MaxListedItems items are listed; the remainder is summarised as a count.
func FormatMessage(d Delivery) string {
	var b strings.Builder

	noun := "items"
	if len(d.Items) == 1 {
		noun = "item"
	}
	fmt.Fprintf(&b, "<b>%s</b> added %d new wishlist %s:\n",
		html.EscapeString(d.StreamerName), len(d.Items), noun)

	for i, it := range d.Items {
		if i == MaxListedItems {
			break
		}
		b.WriteString("• ")
		if it.ProductURL != "" {
			fmt.Fprintf(&b, `<a href="%s">%s</a>`, html.EscapeString(it.ProductURL), html.EscapeString(it.Name))
		} else {
			b.WriteString(html.EscapeString(it.Name))
		}
		if it.Price > 0 {
			fmt.Fprintf(&b, " (%s)", formatPrice(it))
		}
		b.WriteByte('\n')
	}

	if rest := len(d.Items) - MaxListedItems; rest > 0 {
		fmt.Fprintf(&b, "…and %d more\n", rest)
	}
	if d.StreamerURL != "" {
		b.WriteString(html.EscapeString(d.StreamerURL))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPrice(it domain.Item) string {
	if it.Currency == "" {
		return fmt.Sprintf("%.2f", it.Price)
	}
	return fmt.Sprintf("%.2f %s", it.Price, html.EscapeString(it.Currency))
}
