package o365

import (
	"fmt"
	"strings"
	"time"

	"o365sync/internal"
)

// TimeFormat is the timestamp layout the calendar API speaks, always UTC.
const TimeFormat = "2006-01-02T15:04:05Z"

// Unnamed stands in for an empty title in either direction.
const Unnamed = "<unnamed>"

// The remote side refuses zero-length windows, so pad zero-duration events
// to one hour.
const defaultEventDuration = time.Hour

// RemoteEvent is an event as the calendar API represents it. Id is assigned
// by the provider and omitted from drafts.
type RemoteEvent struct {
	ID        string     `json:"Id,omitempty"`
	Subject   string     `json:"Subject"`
	Body      *ItemBody  `json:"Body,omitempty"`
	Start     string     `json:"Start"`
	End       string     `json:"End"`
	Attendees []Attendee `json:"Attendees,omitempty"`
}

type ItemBody struct {
	ContentType string `json:"ContentType"`
	Content     string `json:"Content"`
}

type Attendee struct {
	Name    string `json:"Name"`
	Address string `json:"Address"`
	Type    string `json:"Type"`
}

// MappingError marks a single remote event that cannot be represented
// locally. The event is skipped, the sync pass continues.
type MappingError struct {
	RemoteID string
	Field    string
	Value    string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("o365: event %q has unusable %s %q", e.RemoteID, e.Field, e.Value)
}

// NewRemoteEvent builds the draft pushed for a local event. Attendees are
// only attached for course events created by a teacher; the caller decides
// and passes the course's students.
func NewRemoteEvent(ev *internal.Event, attendees []internal.User) *RemoteEvent {
	subject := ev.Name
	if subject == "" {
		subject = Unnamed
	}
	duration := ev.Duration
	if duration == 0 {
		duration = defaultEventDuration
	}

	re := &RemoteEvent{
		Subject: subject,
		Body: &ItemBody{
			ContentType: "Text",
			Content:     strings.TrimSpace(ev.Description),
		},
		Start: ev.StartsAt.UTC().Format(TimeFormat),
		End:   ev.StartsAt.Add(duration).UTC().Format(TimeFormat),
	}
	for _, u := range attendees {
		re.Attendees = append(re.Attendees, Attendee{
			Name:    u.FullName(),
			Address: u.Email,
			Type:    "Required",
		})
	}
	return re
}

// EventFromRemote maps a remote event onto the local representation.
// Events without an id, or whose Start does not parse to a usable
// timestamp, are rejected with a MappingError; the provider is known to
// emit such sentinels and they must not sync in either direction.
func EventFromRemote(re *RemoteEvent, courseID int64) (*internal.Event, error) {
	if strings.TrimSpace(re.ID) == "" {
		// Without an id the event can never be matched on a later pass
		// and would be re-created every time.
		return nil, &MappingError{RemoteID: re.ID, Field: "Id", Value: re.ID}
	}

	start, err := parseTime(re.Start)
	if err != nil || start.Unix() <= 0 {
		return nil, &MappingError{RemoteID: re.ID, Field: "Start", Value: re.Start}
	}

	var duration time.Duration
	if end, err := parseTime(re.End); err == nil && end.After(start) {
		duration = end.Sub(start)
	}

	name := re.Subject
	if name == "" {
		name = Unnamed
	}

	ev := &internal.Event{
		CourseID: courseID,
		Name:     name,
		Format:   internal.FormatPlain,
		StartsAt: start,
		Duration: duration,
		UUID:     re.ID,
	}
	if re.Body != nil {
		ev.Description = re.Body.Content
		if !strings.EqualFold(re.Body.ContentType, "Text") {
			ev.Format = internal.FormatHTML
		}
	}
	return ev, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		// Some tenants answer with an offset instead of the Z suffix.
		t, err = time.Parse(time.RFC3339, s)
	}
	return t.UTC(), err
}
