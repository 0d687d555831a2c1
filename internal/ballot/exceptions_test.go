package ballot

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pydata-london/meetup-ballot/internal/meetup"
)

func TestReadExceptions(t *testing.T) {
	x, err := ReadExceptions(strings.NewReader("123\n456 Jo Li\n\n# comment\n  789\n"))
	require.NoError(t, err)

	assert.Len(t, x, 3)
	for _, id := range []meetup.MemberID{123, 456, 789} {
		assert.True(t, x.Contains(id), "missing %d", id)
	}
	assert.False(t, x.Contains(1))
}

func TestReadExceptions_InvalidID(t *testing.T) {
	_, err := ReadExceptions(strings.NewReader("123\nabc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestExceptions_NilContainsNothing(t *testing.T) {
	var x Exceptions
	assert.False(t, x.Contains(1))
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, ok := SplitS3URI("s3://ballot-config/exceptions/members.csv")
	require.True(t, ok)
	assert.Equal(t, "ballot-config", bucket)
	assert.Equal(t, "exceptions/members.csv", key)

	for _, bad := range []string{"exceptions.csv", "s3://bucket", "s3:///key", "s3://bucket/"} {
		_, _, ok := SplitS3URI(bad)
		assert.False(t, ok, bad)
	}
}

type fakeStore struct {
	bucket, key string
	body        string
	err         error
}

func (f *fakeStore) GetObjectStream(_ context.Context, bucket, key string) (io.ReadCloser, string, error) {
	f.bucket, f.key = bucket, key
	if f.err != nil {
		return nil, "", f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), "text/csv", nil
}

func TestLoadExceptions_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exceptions.csv")
	require.NoError(t, os.WriteFile(path, []byte("11\n22\n"), 0o600))

	x, err := LoadExceptions(t.Context(), path, nil)
	require.NoError(t, err)
	assert.True(t, x.Contains(11))
	assert.True(t, x.Contains(22))
}

func TestLoadExceptions_FromS3(t *testing.T) {
	store := &fakeStore{body: "33\n"}

	x, err := LoadExceptions(t.Context(), "s3://cfg/exceptions.csv", store)
	require.NoError(t, err)
	assert.True(t, x.Contains(33))
	assert.Equal(t, "cfg", store.bucket)
	assert.Equal(t, "exceptions.csv", store.key)
}

func TestLoadExceptions_Errors(t *testing.T) {
	_, err := LoadExceptions(t.Context(), "s3://cfg/exceptions.csv", nil)
	assert.Error(t, err)

	_, err = LoadExceptions(t.Context(), "s3://cfg/exceptions.csv", &fakeStore{err: errors.New("denied")})
	assert.ErrorContains(t, err, "denied")

	_, err = LoadExceptions(t.Context(), filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)
}

func TestLoadExceptions_EmptyPath(t *testing.T) {
	x, err := LoadExceptions(t.Context(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, x)
}
