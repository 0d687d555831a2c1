package ballot

import (
	"math/rand/v2"
	"slices"

	"github.com/pydata-london/meetup-ballot/internal/meetup"
)

// Rand is the randomness source used for sampling. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Available returns the number of open seats, never negative.
func Available(capacity, yes int) int {
	return max(capacity-yes, 0)
}

// SampleSize bounds the draw by both the open seats and the candidate pool.
func SampleSize(available, pool int) int {
	return max(min(available, pool), 0)
}

// AlreadyRan reports whether the event is already at capacity.
func AlreadyRan(counts map[meetup.Response]int, capacity int) bool {
	return counts[meetup.ResponseYes] >= capacity
}

// Sample draws n distinct members uniformly at random without replacement.
// The pool is not modified.
func Sample(pool []meetup.MemberID, n int, rnd Rand) []meetup.MemberID {
	n = min(n, len(pool))
	if n <= 0 {
		return nil
	}
	picked := slices.Clone(pool)
	for i := 0; i < n; i++ {
		j := i + rnd.IntN(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	return picked[:n]
}

// Draw is the outcome of one ballot before it is committed.
type Draw struct {
	Available  int
	SampleSize int
	Organizers []meetup.MemberID
	Sampled    []meetup.MemberID
}

// Attending returns organizers followed by the sampled members, without duplicates.
func (d Draw) Attending() []meetup.MemberID {
	seen := make(map[meetup.MemberID]struct{}, len(d.Organizers)+len(d.Sampled))
	out := make([]meetup.MemberID, 0, len(d.Organizers)+len(d.Sampled))
	for _, ids := range [][]meetup.MemberID{d.Organizers, d.Sampled} {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Admitted is the number of members marked attending.
func (d Draw) Admitted() int {
	return len(d.Attending())
}

// Plan computes the draw for the given pools and current yes count. Organizers
// are always admitted and never count against the sample.
func Plan(organizers, clean []meetup.MemberID, yes, capacity int, rnd Rand) Draw {
	available := Available(capacity, yes)
	size := SampleSize(available, len(clean))
	return Draw{
		Available:  available,
		SampleSize: size,
		Organizers: organizers,
		Sampled:    Sample(clean, size, rnd),
	}
}
