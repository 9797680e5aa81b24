package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	calendarEventsURL = "https://www.googleapis.com/calendar/v3/calendars/primary/events"
	calendarScope     = "https://www.googleapis.com/auth/calendar.readonly"
	// the code comes from the client side popup flow
	postMessageRedirect = "postmessage"
	maxEventPages       = 10
)

var ErrCalendarNotConfigured = errors.New("google calendar is not configured")

type EventTime struct {
	Date     string `json:"date,omitempty"`
	DateTime string `json:"dateTime,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type CalendarEvent struct {
	ID          string    `json:"id"`
	Status      string    `json:"status,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	HTMLLink    string    `json:"htmlLink,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// CalendarEvents is the subset of an events.list response the service
// returns. Items from every page are merged.
type CalendarEvents struct {
	Summary  string          `json:"summary,omitempty"`
	TimeZone string          `json:"timeZone,omitempty"`
	Items    []CalendarEvent `json:"items"`
}

type Calendar struct {
	OAuth *oauth2.Config
	// EventsURL is overridden in tests.
	EventsURL string
}

// NewCalendar shares the sign-in client credentials and returns nil
// without a client ID.
func NewCalendar(cfg GoogleConfig) *Calendar {
	if cfg.ClientID == "" {
		return nil
	}
	return &Calendar{
		OAuth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  postMessageRedirect,
			Scopes:       []string{calendarScope},
			Endpoint:     google.Endpoint,
		},
		EventsURL: calendarEventsURL,
	}
}

func (c *Calendar) Enabled() bool { return c != nil && c.OAuth != nil }

// Exchange trades an activation code for the offline refresh token. The
// token is empty when Google had already granted one to this client.
func (c *Calendar) Exchange(ctx context.Context, code string) (string, error) {
	if !c.Enabled() {
		return "", ErrCalendarNotConfigured
	}
	tok, err := c.OAuth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("google calendar: exchange code: %w", err)
	}
	return tok.RefreshToken, nil
}

// Events lists single events on the primary calendar between from and to,
// ordered by start time.
func (c *Calendar) Events(ctx context.Context, refreshToken string, from, to time.Time) (*CalendarEvents, error) {
	if !c.Enabled() {
		return nil, ErrCalendarNotConfigured
	}
	client := c.OAuth.Client(ctx, &oauth2.Token{RefreshToken: refreshToken})

	q := url.Values{}
	q.Set("timeMin", from.UTC().Format(time.RFC3339))
	q.Set("timeMax", to.UTC().Format(time.RFC3339))
	q.Set("orderBy", "startTime")
	q.Set("singleEvents", "true")

	out := &CalendarEvents{Items: []CalendarEvent{}}
	for page := 0; page < maxEventPages; page++ {
		var resp struct {
			CalendarEvents
			NextPageToken string `json:"nextPageToken"`
		}
		if err := c.get(ctx, client, q, &resp); err != nil {
			return nil, err
		}
		if page == 0 {
			out.Summary, out.TimeZone = resp.Summary, resp.TimeZone
		}
		out.Items = append(out.Items, resp.Items...)
		if resp.NextPageToken == "" {
			break
		}
		q.Set("pageToken", resp.NextPageToken)
	}
	return out, nil
}

func (c *Calendar) get(ctx context.Context, client *http.Client, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.EventsURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("google calendar: list events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("google calendar: events returned %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("google calendar: decode events: %w", err)
	}
	return nil
}

// IsRevoked reports whether err means Google no longer honours the grant.
func IsRevoked(err error) bool {
	var re *oauth2.RetrieveError
	return errors.As(err, &re) && re.ErrorCode == "invalid_grant"
}

// IsRejectedCode reports whether an exchange failed because Google refused
// the code itself, as opposed to a transport failure.
func IsRejectedCode(err error) bool {
	var re *oauth2.RetrieveError
	return errors.As(err, &re)
}
