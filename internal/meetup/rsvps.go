package meetup

// ResponseCounts tallies RSVPs by response kind. Kinds with no RSVPs are absent.
func ResponseCounts(rsvps []RSVP) map[Response]int {
	counts := make(map[Response]int)
	for _, r := range rsvps {
		counts[r.Response]++
	}
	return counts
}

// OrganizerIDs returns the members that are co-organizers or hosts of the event.
func OrganizerIDs(rsvps []RSVP) []MemberID {
	var ids []MemberID
	for _, r := range rsvps {
		if r.Member.IsOrganizer() {
			ids = append(ids, r.Member.ID)
		}
	}
	return ids
}

// CandidateIDs returns every member that is not an organizer; the complement of OrganizerIDs.
func CandidateIDs(rsvps []RSVP) []MemberID {
	var ids []MemberID
	for _, r := range rsvps {
		if !r.Member.IsOrganizer() {
			ids = append(ids, r.Member.ID)
		}
	}
	return ids
}
