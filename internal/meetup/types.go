package meetup

import "time"

// Response is an RSVP answer.
type Response string

const (
	ResponseYes      Response = "yes"
	ResponseNo       Response = "no"
	ResponseWaitlist Response = "waitlist"
)

// MemberID identifies a member on the platform.
type MemberID int64

// Never is returned as the start time when there is no upcoming event.
var Never = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Event is an entry of the group's upcoming events listing.
type Event struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Time is the start time in milliseconds since the epoch.
	Time int64 `json:"time"`
}

// StartsAt returns the event start time.
func (e Event) StartsAt() time.Time {
	return time.UnixMilli(e.Time).UTC()
}

// EventContext describes the member's relationship to the event.
type EventContext struct {
	Host bool `json:"host"`
}

// Member is the member part of an RSVP record.
type Member struct {
	ID           MemberID     `json:"id"`
	Name         string       `json:"name,omitempty"`
	Role         string       `json:"role,omitempty"`
	EventContext EventContext `json:"event_context"`
}

// IsOrganizer reports whether the member holds a group role or hosts the event.
func (m Member) IsOrganizer() bool {
	return m.Role != "" || m.EventContext.Host
}

// RSVP is one response record for an event.
type RSVP struct {
	Member   Member   `json:"member"`
	Response Response `json:"response"`
}

// memberDetails is the subset of the member profile we read.
type memberDetails struct {
	ID   MemberID `json:"id"`
	Name *string  `json:"name"`
}
