package o365

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"

	"o365sync/internal"
)

// DefaultBaseURL is the calendar API root.
const DefaultBaseURL = "https://outlook.office365.com/ews/odata"

const defaultTimeout = 30 * time.Second

// Conservative throttle, well under the provider's published quota.
const (
	requestsPerSecond = 10
	requestBurst      = 15
)

// Client issues authenticated calendar requests. It implements
// internal.Provider.
type Client struct {
	BaseURL string
	Output  io.Writer
	Verbose bool

	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(tokens TokenSource) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		Output:     os.Stdout,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(requestsPerSecond, requestBurst),
	}
}

// eventList is the envelope of a list response. The error member can be
// populated even under a 2xx status, so it is checked explicitly rather
// than inferring success from its absence.
type eventList struct {
	Value    []RemoteEvent `json:"value"`
	NextLink string        `json:"@odata.nextLink"`
	Error    *apiFault     `json:"error"`
}

type apiFault struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Events lists the events of the referenced calendar that start inside the
// window. The iterator is fed page by page until the nextLink chain is
// exhausted; remote events with unusable timestamps are skipped.
func (c *Client) Events(ctx context.Context, ref internal.CalendarRef, w internal.Window) (internal.Iterator, error) {
	it := newEventIterator()
	go c.events(ctx, ref, w, it.events)
	return it, nil
}

func (c *Client) events(ctx context.Context, ref internal.CalendarRef, w internal.Window, eventCh chan eventOrError) {
	defer close(eventCh)

	c.logf(ref.String(), "checking for events")

	next := c.eventsURL(ref)
	for next != "" {
		var page eventList
		status, err := c.roundTrip(ctx, http.MethodGet, next, nil, &page)
		if err != nil {
			eventCh <- eventOrError{err: err}
			return
		}
		if page.Error != nil {
			eventCh <- eventOrError{err: &APIError{StatusCode: status, Body: page.Error.Code + ": " + page.Error.Message}}
			return
		}

		for i := range page.Value {
			ev, err := EventFromRemote(&page.Value[i], 0)
			if err != nil {
				c.logf(ref.String(), "skipping event: %v", err)
				continue
			}
			if !w.Contains(ev.StartsAt) {
				continue
			}
			select {
			case eventCh <- eventOrError{e: ev}:
			case <-ctx.Done():
				// A clean close here would look like a complete listing;
				// the consumer must see the truncation.
				eventCh <- eventOrError{err: ctx.Err()}
				return
			}
		}
		next = page.NextLink
	}
}

// CreateEvent pushes a draft built from ev and returns the id the provider
// assigned. Creation is not idempotent on the remote side; callers must
// not push events that already carry a reference.
func (c *Client) CreateEvent(ctx context.Context, ref internal.CalendarRef, ev *internal.Event, attendees []internal.User) (string, error) {
	draft := NewRemoteEvent(ev, attendees)

	var created RemoteEvent
	status, err := c.roundTrip(ctx, http.MethodPost, c.eventsURL(ref), draft, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &APIError{StatusCode: status, Body: "create response carried no event id"}
	}

	c.logf(ref.String(), "created event %s: %q", created.ID, draft.Subject)
	return created.ID, nil
}

// DeleteEvent removes a remote event. An already-absent event is success.
func (c *Client) DeleteEvent(ctx context.Context, remoteID string) error {
	u := c.BaseURL + "/Me/Calendar/Events('" + url.PathEscape(remoteID) + "')"

	_, err := c.roundTrip(ctx, http.MethodDelete, u, nil, nil)
	if IsNotFound(err) {
		err = nil
	}
	if err == nil {
		c.logf("", "deleted event %s", remoteID)
	}
	return err
}

// CreateCalendar provisions a named calendar and returns its id.
func (c *Client) CreateCalendar(ctx context.Context, name string) (string, error) {
	payload := struct {
		Name string `json:"Name"`
	}{Name: name}

	var created struct {
		ID string `json:"Id"`
	}
	status, err := c.roundTrip(ctx, http.MethodPost, c.BaseURL+"/Me/Calendars", payload, &created)
	if err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &APIError{StatusCode: status, Body: "create response carried no calendar id"}
	}

	c.logf("", "created calendar %s: %q", created.ID, name)
	return created.ID, nil
}

// DeleteCalendar removes a provisioned calendar; already gone is success.
func (c *Client) DeleteCalendar(ctx context.Context, calendarID string) error {
	u := c.BaseURL + "/Me/Calendars('" + url.PathEscape(calendarID) + "')"

	_, err := c.roundTrip(ctx, http.MethodDelete, u, nil, nil)
	if IsNotFound(err) {
		err = nil
	}
	return err
}

func (c *Client) eventsURL(ref internal.CalendarRef) string {
	switch {
	case ref.UPN != "":
		return c.BaseURL + "/" + url.PathEscape(ref.UPN) + "/Calendar/Events"
	case ref.CalendarID != "":
		return c.BaseURL + "/Me/Calendars('" + url.PathEscape(ref.CalendarID) + "')/Events"
	}
	return c.BaseURL + "/Me/Calendar/Events"
}

// roundTrip performs one authenticated call. A non-2xx answer becomes an
// *APIError carrying the response body. When out is non-nil the body is
// decoded into it.
func (c *Client) roundTrip(ctx context.Context, method, rawURL string, payload, out any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	token, err := c.tokens.Bearer(ctx)
	if err != nil {
		return 0, err
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("o365: encoding request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return 0, fmt.Errorf("o365: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json;odata.metadata=full")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("o365: %s %s: %w", method, rawURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("o365: reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("o365: decoding response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) logf(target, format string, a ...any) {
	if c.Verbose {
		internal.Logf(c.Output, "o365:", target, format, a...)
	}
}
