package ballot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pydata-london/meetup-ballot/internal/meetup"
)

// minTokenLen is the shortest accepted part of a display name.
const minTokenLen = 2

// LooksLikeSpam reports whether a display name looks like a fake registration:
// it must have at least two whitespace-separated parts of two or more characters.
func LooksLikeSpam(name string) bool {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return true
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) < minTokenLen {
			return true
		}
	}
	return false
}

// FilterCandidates looks up each candidate's name and splits them into clean and spam.
// A member whose lookup fails is logged and left out of both lists. Members in the
// exception list are never reported as spam.
func (e *Engine) FilterCandidates(ctx context.Context, ids []meetup.MemberID) (clean, spam []meetup.MemberID, err error) {
	for _, id := range ids {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return clean, spam, fmt.Errorf("wait for lookup slot: %w", err)
			}
		}
		name, err := e.platform.MemberName(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return clean, spam, ctx.Err()
			}
			e.logger.Warn("member lookup failed, skipping", zap.Int64("member_id", int64(id)), zap.Error(err))
			continue
		}
		if !LooksLikeSpam(name) {
			e.logger.Info("good member name", zap.Int64("member_id", int64(id)), zap.String("name", name))
			clean = append(clean, id)
			continue
		}
		if e.exceptions.Contains(id) {
			e.logger.Info("member name allowed by exception list", zap.Int64("member_id", int64(id)), zap.String("name", name))
			clean = append(clean, id)
			continue
		}
		e.logger.Info("bad member name", zap.Int64("member_id", int64(id)), zap.String("name", name))
		spam = append(spam, id)
	}
	return clean, spam, nil
}
