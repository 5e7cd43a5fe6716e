package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/isar-water-etl/internal/domain"
)

// maxBodySize caps how much of an upstream page is read. The gauge tables are
// well below 1 MiB.
const maxBodySize = 4 << 20

// Client implements domain.Extractor for the HND and GKD measurement tables.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewClient creates a scraper whose requests fail after timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "isar-water-etl/1.0",
		logger:    logger,
	}
}

// Extract fetches the source page, locates the timestamp and value cells and
// parses them. A non-numeric value cell yields a Reading with a nil Value.
func (c *Client) Extract(ctx context.Context, src domain.Source) (domain.Reading, error) {
	doc, err := c.open(ctx, src)
	if err != nil {
		return domain.Reading{}, err
	}

	tsText, err := cellText(doc, src.TimestampSelector)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%s: %w", src.Name, err)
	}
	valueText, err := cellText(doc, src.ValueSelector)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%s: %w", src.Name, err)
	}

	ts, err := domain.ParseTimestamp(tsText)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%s: %w", src.Name, err)
	}

	reading := domain.Reading{Timestamp: ts}
	if v, err := domain.ParseValue(valueText); err != nil {
		c.logger.Debug("value cell holds no number", "source", src.Name, "error", err)
	} else {
		reading.Value = &v
	}
	return reading, nil
}

// open downloads and parses the source page.
func (c *Client) open(ctx context.Context, src domain.Source) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create request: %v", domain.ErrFetch, src.Name, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrFetch, src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d", domain.ErrFetch, src.Name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %w", domain.ErrFetch, src.Name, err)
	}
	c.logger.Info("page opened", "source", src.Name, "url", src.URL, "bytes", len(body))

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w: %s: empty body", domain.ErrParse, src.Name)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrParse, src.Name, err)
	}
	return doc, nil
}

// cellText returns the text of the first element matching selector. An
// invalid selector matches nothing and is reported the same way.
func cellText(doc *goquery.Document, selector string) (string, error) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", fmt.Errorf("%w: %q", domain.ErrStructure, selector)
	}
	return sel.Text(), nil
}
