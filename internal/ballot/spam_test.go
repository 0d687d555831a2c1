package ballot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pydata-london/meetup-ballot/internal/meetup"
)

func TestLooksLikeSpam(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"Word", true},
		{"A BC", true},
		{"Ab C", true},
		{"Uncle Bob", false},
		{"  Uncle   Bob  ", false},
		{"Mary Ann Smith", false},
		{"Zoë Ølund", false},
		{"李 小龍", true},
		{"李小 龍龍", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeSpam(tt.name), "%q", tt.name)
	}
}

func TestFilterCandidates(t *testing.T) {
	p := &fakePlatform{names: map[meetup.MemberID]string{
		1: "",
		2: "Word",
		3: "A BC",
		4: "Uncle Bob",
	}}
	e := NewEngine(p, Options{}, nil)

	clean, spam, err := e.FilterCandidates(t.Context(), []meetup.MemberID{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, []meetup.MemberID{4}, clean)
	assert.Equal(t, []meetup.MemberID{1, 2, 3}, spam)
}

func TestFilterCandidates_ExceptionOverridesSpam(t *testing.T) {
	p := &fakePlatform{names: map[meetup.MemberID]string{
		1: "Li",
		2: "Bo",
	}}
	e := NewEngine(p, Options{Exceptions: Exceptions{1: {}}}, nil)

	clean, spam, err := e.FilterCandidates(t.Context(), []meetup.MemberID{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []meetup.MemberID{1}, clean)
	assert.Equal(t, []meetup.MemberID{2}, spam)
}

func TestFilterCandidates_SkipsFailedLookups(t *testing.T) {
	p := &fakePlatform{
		names:      map[meetup.MemberID]string{1: "Uncle Bob", 3: "Ada Lovelace"},
		lookupErrs: map[meetup.MemberID]error{2: errors.New("timeout")},
	}
	e := NewEngine(p, Options{Exceptions: Exceptions{2: {}}}, nil)

	clean, spam, err := e.FilterCandidates(t.Context(), []meetup.MemberID{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []meetup.MemberID{1, 3}, clean)
	assert.Empty(t, spam)
}

func TestFilterCandidates_RateLimited(t *testing.T) {
	p := &fakePlatform{names: map[meetup.MemberID]string{1: "Uncle Bob", 2: "Ada Lovelace", 3: "Grace Hopper"}}
	e := NewEngine(p, Options{Limiter: NewLookupLimiter(1000, 1)}, nil)

	clean, _, err := e.FilterCandidates(t.Context(), []meetup.MemberID{1, 2, 3})
	require.NoError(t, err)
	assert.Len(t, clean, 3)
}

func TestFilterCandidates_StopsOnCancel(t *testing.T) {
	p := &fakePlatform{names: map[meetup.MemberID]string{1: "Uncle Bob", 2: "Ada Lovelace"}}
	e := NewEngine(p, Options{Limiter: NewLookupLimiter(0.001, 1)}, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, _, err := e.FilterCandidates(ctx, []meetup.MemberID{1, 2})
	assert.Error(t, err)
}

func TestNewLookupLimiter_Disabled(t *testing.T) {
	assert.Nil(t, NewLookupLimiter(0, 5))
}
