package ballot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pydata-london/meetup-ballot/internal/meetup"
)

// Exceptions is a set of member ids whose names are accepted even when they look like spam.
type Exceptions map[meetup.MemberID]struct{}

// Contains reports whether id is on the list. A nil set contains nothing.
func (x Exceptions) Contains(id meetup.MemberID) bool {
	_, ok := x[id]
	return ok
}

// ObjectOpener opens an object from blob storage.
type ObjectOpener interface {
	GetObjectStream(ctx context.Context, bucket, key string) (io.ReadCloser, string, error)
}

// ReadExceptions parses a space-delimited CSV with one member id per row.
// Only the first field of a row is used; blank rows are skipped.
func ReadExceptions(r io.Reader) (Exceptions, error) {
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	out := make(Exceptions)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read exceptions: %w", err)
		}
		if len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		line, _ := cr.FieldPos(0)
		id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("exceptions line %d: invalid member id %q", line, rec[0])
		}
		out[meetup.MemberID(id)] = struct{}{}
	}
}

// SplitS3URI splits s3://bucket/key. ok is false for anything else.
func SplitS3URI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// LoadExceptions reads the exception list from a local path or an s3:// URI.
// An empty path yields an empty list.
func LoadExceptions(ctx context.Context, path string, store ObjectOpener) (Exceptions, error) {
	if path == "" {
		return Exceptions{}, nil
	}
	var rc io.ReadCloser
	if bucket, key, ok := SplitS3URI(path); ok {
		if store == nil {
			return nil, fmt.Errorf("exceptions %s: object storage not configured", path)
		}
		body, _, err := store.GetObjectStream(ctx, bucket, key)
		if err != nil {
			return nil, fmt.Errorf("open exceptions %s: %w", path, err)
		}
		rc = body
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open exceptions: %w", err)
		}
		rc = f
	}
	defer rc.Close()
	return ReadExceptions(rc)
}
