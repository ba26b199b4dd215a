// ABOUTME: Shared HTTP client for tracker lookups with timeout, rate limiting, and redirect capture.
// ABOUTME: Redirects are reported to the caller instead of being followed.

package tracker

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"

	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jbossbot/jbossbot/internal/track"
)

// lookupTimeout bounds every tracker request so a hung tracker cannot pin a
// dispatch indefinitely.
const lookupTimeout = 4 * time.Second

// maxBodySize caps response bodies read from trackers.
const maxBodySize = 1 << 20

// Client is the HTTP client shared by the tracker integrations. Lookups are
// rate limited across all trackers so a burst of issue keys cannot hammer the
// upstream servers.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient creates the shared lookup client.
func NewClient(logger *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: lookupTimeout,
			// Redirects are surfaced to the caller; the formatted message
			// becomes the "redirected to X" variant.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		logger:  logger.With("component", "tracker-client"),
	}
}

// get performs a rate-limited GET. A 3xx response returns the Location
// header as redirect with a nil body; any status other than 200 is an error.
func (c *Client) get(ctx context.Context, url, accept string) (body []byte, redirect string, err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return nil, "", fmt.Errorf("redirect from %s without location", url)
		}
		return nil, loc, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, "", fmt.Errorf("reading response from %s: %w", url, err)
	}
	return body, "", nil
}

// getJSON fetches url and decodes the JSON body into v unless redirected.
func (c *Client) getJSON(ctx context.Context, url string, v any) (redirect string, err error) {
	body, redirect, err := c.get(ctx, url, "application/json")
	if err != nil || redirect != "" {
		return redirect, err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return "", fmt.Errorf("decoding %s: %w", url, err)
	}
	return "", nil
}

// getXML fetches url and decodes the XML body into v unless redirected.
func (c *Client) getXML(ctx context.Context, url string, v any) (redirect string, err error) {
	body, redirect, err := c.get(ctx, url, "application/xml")
	if err != nil || redirect != "" {
		return redirect, err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return "", fmt.Errorf("decoding %s: %w", url, err)
	}
	return "", nil
}

// keyMatch is one extraction hit with its byte offset, so integrations that
// scan with several patterns can merge hits back into document order.
type keyMatch struct {
	pos int
	fp  track.Fingerprint
}

// inOrder sorts matches by position and returns the fingerprints
// left-to-right. Duplicate keys are kept; the recursion guard makes
// first-match-wins hold downstream.
func inOrder(matches []keyMatch) []track.Fingerprint {
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	fps := make([]track.Fingerprint, 0, len(matches))
	for _, m := range matches {
		fps = append(fps, m.fp)
	}
	return fps
}
