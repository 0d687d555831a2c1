package meetup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rsvp(id MemberID, role, host bool) RSVP {
	r := RSVP{Member: Member{ID: id, EventContext: EventContext{Host: host}}}
	if role {
		r.Member.Role = "coorganizer"
	}
	return r
}

func TestResponseCounts(t *testing.T) {
	counts := ResponseCounts([]RSVP{{Response: ResponseYes}, {Response: ResponseNo}})
	assert.Equal(t, map[Response]int{ResponseYes: 1, ResponseNo: 1}, counts)
	assert.Zero(t, counts[ResponseWaitlist])
}

func TestOrganizerIDs(t *testing.T) {
	assert.Equal(t, []MemberID{1}, OrganizerIDs([]RSVP{rsvp(1, true, true)}))
}

func TestPartitionIsComplete(t *testing.T) {
	rsvps := []RSVP{
		rsvp(1, false, false),
		rsvp(2, true, false),
		rsvp(3, false, true),
		rsvp(4, false, false),
		rsvp(5, true, true),
	}

	candidates := CandidateIDs(rsvps)
	organizers := OrganizerIDs(rsvps)

	assert.Equal(t, []MemberID{1, 4}, candidates)
	assert.Equal(t, []MemberID{2, 3, 5}, organizers)
	assert.ElementsMatch(t, []MemberID{1, 2, 3, 4, 5}, append(candidates, organizers...))
}
