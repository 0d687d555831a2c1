package ballot

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pydata-london/meetup-ballot/internal/meetup"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestAvailable(t *testing.T) {
	tests := []struct {
		capacity, yes, want int
	}{
		{101, 100, 1},
		{100, 100, 0},
		{50, 120, 0},
		{0, 0, 0},
		{10, 0, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Available(tt.capacity, tt.yes), "capacity=%d yes=%d", tt.capacity, tt.yes)
	}
}

func TestSampleSize(t *testing.T) {
	assert.Equal(t, 1, SampleSize(1, 3))
	assert.Equal(t, 3, SampleSize(10, 3))
	assert.Equal(t, 0, SampleSize(0, 3))
	assert.Equal(t, 0, SampleSize(5, 0))
}

func TestAlreadyRan(t *testing.T) {
	assert.True(t, AlreadyRan(map[meetup.Response]int{meetup.ResponseYes: 100}, 100))
	assert.True(t, AlreadyRan(map[meetup.Response]int{meetup.ResponseYes: 120}, 100))
	assert.False(t, AlreadyRan(map[meetup.Response]int{meetup.ResponseYes: 99}, 100))
	assert.False(t, AlreadyRan(map[meetup.Response]int{}, 1))
}

func TestSample_DistinctMembersFromPool(t *testing.T) {
	pool := []meetup.MemberID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	orig := append([]meetup.MemberID(nil), pool...)

	got := Sample(pool, 4, seeded())

	require.Len(t, got, 4)
	seen := map[meetup.MemberID]bool{}
	for _, id := range got {
		assert.Contains(t, pool, id)
		assert.False(t, seen[id], "duplicate %d", id)
		seen[id] = true
	}
	assert.Equal(t, orig, pool)
}

func TestSample_Bounds(t *testing.T) {
	pool := []meetup.MemberID{1, 2, 3}
	assert.Nil(t, Sample(pool, 0, seeded()))
	assert.Nil(t, Sample(nil, 3, seeded()))
	assert.ElementsMatch(t, pool, Sample(pool, 10, seeded()))
}

func TestSample_Uniform(t *testing.T) {
	pool := []meetup.MemberID{1, 2, 3, 4}
	rnd := seeded()
	hits := map[meetup.MemberID]int{}
	const rounds = 20000
	for i := 0; i < rounds; i++ {
		for _, id := range Sample(pool, 1, rnd) {
			hits[id]++
		}
	}
	for _, id := range pool {
		assert.InDelta(t, rounds/len(pool), hits[id], rounds*0.03, "member %d", id)
	}
}

func TestPlan_OneSeatLeft(t *testing.T) {
	organizers := []meetup.MemberID{99}
	clean := []meetup.MemberID{1, 2, 3}

	d := Plan(organizers, clean, 100, 101, seeded())

	assert.Equal(t, 1, d.Available)
	assert.Equal(t, 1, d.SampleSize)
	require.Len(t, d.Sampled, 1)
	assert.Contains(t, clean, d.Sampled[0])
	assert.Equal(t, 2, d.Admitted())
	assert.Equal(t, meetup.MemberID(99), d.Attending()[0])
}

func TestPlan_FullEventAdmitsOrganizersOnly(t *testing.T) {
	d := Plan([]meetup.MemberID{99}, []meetup.MemberID{1, 2, 3}, 100, 100, seeded())

	assert.Equal(t, 0, d.Available)
	assert.Equal(t, 0, d.SampleSize)
	assert.Empty(t, d.Sampled)
	assert.Equal(t, []meetup.MemberID{99}, d.Attending())
}

func TestDraw_AttendingDeduplicates(t *testing.T) {
	d := Draw{Organizers: []meetup.MemberID{1, 2}, Sampled: []meetup.MemberID{2, 3}}
	assert.Equal(t, []meetup.MemberID{1, 2, 3}, d.Attending())
	assert.Equal(t, 3, d.Admitted())
}
