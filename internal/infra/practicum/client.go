// Package practicum implements the client for the homework statuses API.
package practicum

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
)

// maxBodySize caps the response read; a status page is a few kilobytes.
const maxBodySize = 1 << 20

// ErrResponseTooLarge is returned instead of a truncated body.
var ErrResponseTooLarge = fmt.Errorf("%w: response body exceeds limit", homework.ErrRequest)

// Client fetches homework statuses with an OAuth token.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
	now        func() time.Time
}

func NewClient(endpoint, token string, timeout time.Duration, logger *logrus.Entry) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// FetchStatuses requests the statuses changed since fromDate. A zero fromDate means "now".
// Transport failures and oversized bodies wrap homework.ErrRequest, non-200 answers wrap homework.ErrHTTP.
func (c *Client) FetchStatuses(ctx context.Context, fromDate int64) ([]byte, error) {
	if fromDate == 0 {
		fromDate = c.now().Unix()
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid endpoint: %v", homework.ErrRequest, err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", homework.ErrRequest, err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	c.logger.WithField("from_date", fromDate).Debug("Requesting homework statuses")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", homework.ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, fmt.Errorf("%w: %s returned status %d", homework.ErrHTTP, c.endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", homework.ErrRequest, err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: response too large, more than %d bytes", ErrResponseTooLarge, maxBodySize)
	}
	return body, nil
}
