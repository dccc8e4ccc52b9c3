package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// wishlistResponse maps the catalog JSON body.
type wishlistResponse struct {
	Success bool           `json:"success"`
	Items   []wishlistItem `json:"items"`
}

type wishlistItem struct {
	ID         string  `json:"id"`
	ProductID  string  `json:"product_id"`
	ExternalID string  `json:"external_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	ImageURL   string  `json:"image_url"`
	ProductURL string  `json:"product_url"`
}

func (w wishlistItem) toDomain() domain.Item {
	productID := w.ProductID
	if productID == "" {
		productID = w.ID
	}
	return domain.Item{
		Key:        domain.ItemKey{ProductID: productID, ExternalID: w.ExternalID},
		Name:       w.Name,
		Price:      w.Price,
		Currency:   w.Currency,
		ImageURL:   w.ImageURL,
		ProductURL: w.ProductURL,
	}
}

// HTTPFetcher reads wishlists from a JSON catalog endpoint at
// {baseURL}/wishlists/{nickname}. Outbound requests share one limiter so the
// remote source sees a steady request rate regardless of queue pressure.
type HTTPFetcher struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPFetcher builds a fetcher. The client timeout bounds every fetch;
// a nil limiter disables client-side throttling.
func NewHTTPFetcher(baseURL string, timeout time.Duration, limiter *rate.Limiter) *HTTPFetcher {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &HTTPFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, nickname string) (Snapshot, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("wait for fetch slot: %w", err)
	}

	endpoint := f.baseURL + "/wishlists/" + url.PathEscape(strings.ToLower(nickname))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Snapshot{}, fmt.Errorf("%w: status %d", domain.ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Snapshot{}, fmt.Errorf("%w: unexpected status %d", domain.ErrFetchFailed, resp.StatusCode)
	}

	var body wishlistResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Snapshot{}, fmt.Errorf("%w: decode response: %v", domain.ErrFetchFailed, err)
	}
	if !body.Success {
		return Snapshot{Success: false}, nil
	}

	items := make([]domain.Item, 0, len(body.Items))
	for _, it := range body.Items {
		items = append(items, it.toDomain())
	}
	return Snapshot{Success: true, Items: items}, nil
}

// compile-time check that HTTPFetcher implements Fetcher
var _ Fetcher = (*HTTPFetcher)(nil)
