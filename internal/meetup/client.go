// Package meetup is a thin client for the meetup.com REST API: event lookup, RSVP
// listing, member profiles and RSVP updates.
package meetup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.meetup.com"

// ErrNoUpcomingEvent is returned when the group has no upcoming event or the
// listing could not be fetched. Callers treat it as nothing to do.
var ErrNoUpcomingEvent = errors.New("no upcoming event")

// StatusError is returned for a non-success HTTP status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

// Config holds client settings.
type Config struct {
	BaseURL string
	URLName string // group url name, e.g. "pydatalondon"
	Token   string // sent as a bearer credential
	Timeout time.Duration
	// MaxRetries is the number of attempts for GET requests (1 disables retries).
	MaxRetries   int
	RetryBackoff time.Duration
}

// Client calls the meetup API for a single group. It is safe to share once built.
type Client struct {
	http   *http.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a client for the configured group.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	return &Client{
		http:   &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

// groupURL returns {base}/{urlname}/{path}.
func (c *Client) groupURL(path string) string {
	return c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.URLName) + "/" + path
}

// NextEvent returns the first upcoming event of the group.
func (c *Client) NextEvent(ctx context.Context) (*Event, error) {
	var events []Event
	if err := c.getJSON(ctx, c.groupURL("events"), url.Values{"page": {"1"}}, &events); err != nil {
		c.logger.Warn("list events failed", zap.String("urlname", c.cfg.URLName), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNoUpcomingEvent, err)
	}
	if len(events) == 0 {
		return nil, ErrNoUpcomingEvent
	}
	return &events[0], nil
}

// NextEventID returns the id of the first upcoming event.
func (c *Client) NextEventID(ctx context.Context) (string, error) {
	ev, err := c.NextEvent(ctx)
	if err != nil {
		return "", err
	}
	return ev.ID, nil
}

// NextEventTime returns the start of the first upcoming event, or Never.
func (c *Client) NextEventTime(ctx context.Context) time.Time {
	ev, err := c.NextEvent(ctx)
	if err != nil {
		return Never
	}
	return ev.StartsAt()
}

// RSVPs returns every RSVP record for an event.
func (c *Client) RSVPs(ctx context.Context, eventID string) ([]RSVP, error) {
	var rsvps []RSVP
	if err := c.getJSON(ctx, c.groupURL("events/"+url.PathEscape(eventID)+"/rsvps"), nil, &rsvps); err != nil {
		return nil, fmt.Errorf("get rsvps: %w", err)
	}
	return rsvps, nil
}

// MemberName returns the member's display name; "" when the profile has none.
func (c *Client) MemberName(ctx context.Context, id MemberID) (string, error) {
	var details memberDetails
	u := c.cfg.BaseURL + "/2/member/" + strconv.FormatInt(int64(id), 10)
	if err := c.getJSON(ctx, u, url.Values{"page": {"1"}}, &details); err != nil {
		return "", fmt.Errorf("get member %d: %w", id, err)
	}
	if details.Name == nil {
		return "", nil
	}
	return *details.Name, nil
}

// MarkRSVPsYes sets the RSVP of every member to yes. A failure for one member is
// logged and does not stop the rest; the failed ids are returned.
func (c *Client) MarkRSVPsYes(ctx context.Context, eventID string, ids []MemberID) []MemberID {
	var failed []MemberID
	for _, id := range ids {
		c.logger.Info("setting rsvp to yes", zap.String("event_id", eventID), zap.Int64("member_id", int64(id)))
		if err := c.markYes(ctx, eventID, id); err != nil {
			c.logger.Error("set rsvp failed", zap.String("event_id", eventID), zap.Int64("member_id", int64(id)), zap.Error(err))
			failed = append(failed, id)
			continue
		}
		c.logger.Info("rsvp marked yes", zap.Int64("member_id", int64(id)))
	}
	return failed
}

func (c *Client) markYes(ctx context.Context, eventID string, id MemberID) error {
	form := url.Values{
		"member_id": {strconv.FormatInt(int64(id), 10)},
		"event_id":  {eventID},
		"rsvp":      {string(ResponseYes)},
	}
	u := c.cfg.BaseURL + "/2/rsvp"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post rsvp: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &StatusError{Method: http.MethodPost, URL: u, StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
}

// getJSON performs a GET and decodes the body into out. Transport errors, 429 and
// 5xx are retried with exponential backoff up to MaxRetries attempts.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL += "?" + params.Encode()
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryBackoff
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.get(ctx, rawURL)
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.cfg.MaxRetries)))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	c.authorize(req)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Method: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			c.logger.Debug("retryable response", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
			return nil, statusErr
		}
		return nil, backoff.Permanent(statusErr)
	}
	return body, nil
}
