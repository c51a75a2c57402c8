package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RankRef identifies a rank within a guild. It is either backed by a Discord
// role or by a plain display label; exactly one of the two is set. Refs are
// compared and persisted by their normalized Key, never by role ownership.
type RankRef struct {
	RoleID int64
	Label  string
}

// RoleRef creates a role-backed rank reference.
func RoleRef(roleID int64) RankRef {
	return RankRef{RoleID: roleID}
}

// LabelRef creates a label-backed rank reference. Labels are case-insensitive.
func LabelRef(label string) RankRef {
	return RankRef{Label: strings.ToLower(strings.TrimSpace(label))}
}

// IsRole reports whether the reference is backed by a Discord role.
func (r RankRef) IsRole() bool {
	return r.RoleID != 0
}

// Key returns the normalized identifier used as the storage key.
func (r RankRef) Key() string {
	if r.IsRole() {
		return "role:" + strconv.FormatInt(r.RoleID, 10)
	}
	return "label:" + r.Label
}

// Display returns a human-readable form: a role mention for role-backed refs,
// the label otherwise.
func (r RankRef) Display() string {
	if r.IsRole() {
		return fmt.Sprintf("<@&%d>", r.RoleID)
	}
	return r.Label
}

// ParseRankKey parses a normalized identifier back into a RankRef.
func ParseRankKey(key string) (RankRef, error) {
	switch {
	case strings.HasPrefix(key, "role:"):
		roleID, err := strconv.ParseInt(key[len("role:"):], 10, 64)
		if err != nil || roleID <= 0 {
			return RankRef{}, fmt.Errorf("invalid role rank key %q", key)
		}
		return RankRef{RoleID: roleID}, nil
	case strings.HasPrefix(key, "label:"):
		label := key[len("label:"):]
		if label == "" {
			return RankRef{}, fmt.Errorf("invalid label rank key %q", key)
		}
		return RankRef{Label: label}, nil
	default:
		return RankRef{}, fmt.Errorf("unrecognized rank key %q", key)
	}
}
