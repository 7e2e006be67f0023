// Package rates serves the exchange-rate table used by every total
// computation. It caches the last table fetched from the BNR XML feed
// and falls back to hardcoded defaults, so a table is always available
// synchronously.
package rates

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"cheltuieli/internal/core"
)

// DefaultFeedURL is the Romanian national bank daily rates feed.
const DefaultFeedURL = "https://www.bnr.ro/nbrfxrates.xml"

// Provider holds the current rate table. Rates() never blocks on the
// network; Refresh is called by the owner on its own schedule.
type Provider struct {
	mu        sync.RWMutex
	current   core.Rates
	updatedAt time.Time

	feedURL string
	client  *http.Client
}

// NewProvider builds a provider seeded with the default table. An empty
// feedURL selects the BNR feed.
func NewProvider(feedURL string) *Provider {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	return &Provider{
		current: core.DefaultRates(),
		feedURL: feedURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Rates returns the current table: the last successful fetch, a manual
// override, or the defaults.
func (p *Provider) Rates() core.Rates {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// UpdatedAt reports when the table last changed. Zero until the first
// refresh or override.
func (p *Provider) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updatedAt
}

// SetManual overrides the table with user-entered values. Non-positive
// or non-finite values keep the current rate for that currency.
func (p *Provider) SetManual(eur, usd float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if eur > 0 {
		p.current.EUR = eur
	}
	if usd > 0 {
		p.current.USD = usd
	}
	p.updatedAt = time.Now()
}

// feed mirrors the nbrfxrates.xml shape, reduced to what we read.
type feed struct {
	Body struct {
		Cube struct {
			Rates []struct {
				Currency string `xml:"currency,attr"`
				Value    string `xml:",chardata"`
			} `xml:"Rate"`
		} `xml:"Cube"`
	} `xml:"Body"`
}

// Refresh fetches the feed and updates the table. On any failure the
// last-known table stays in place and the error is returned for
// logging.
func (p *Provider) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL, nil)
	if err != nil {
		return fmt.Errorf("build rates request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch rates feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rates feed returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read rates feed: %w", err)
	}

	next, err := parseFeed(body)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.current = next
	p.updatedAt = time.Now()
	p.mu.Unlock()
	return nil
}

// parseFeed extracts EUR and USD from the feed document. Both must be
// present and positive; a partial table is rejected whole so the cached
// one stays consistent.
func parseFeed(body []byte) (core.Rates, error) {
	var doc feed
	if err := xml.Unmarshal(body, &doc); err != nil {
		return core.Rates{}, fmt.Errorf("decode rates feed: %w", err)
	}
	var next core.Rates
	for _, r := range doc.Body.Cube.Rates {
		// The feed localizes decimals with a comma.
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(r.Value), ",", "."), 64)
		if err != nil || v <= 0 {
			continue
		}
		switch r.Currency {
		case "EUR":
			next.EUR = v
		case "USD":
			next.USD = v
		}
	}
	if next.EUR == 0 || next.USD == 0 {
		return core.Rates{}, fmt.Errorf("rates feed missing EUR or USD")
	}
	return next, nil
}
