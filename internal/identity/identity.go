// Package identity derives stable conversation identifiers for two-party
// conversations. Two clients starting a conversation between the same pair
// compute the same id without coordination, so a create-create race becomes
// an idempotent create-or-adopt.
package identity

import "strings"

// Direct ids are "dm:<lo>_<hi>" with the pair sorted lexicographically. The
// prefix keeps derived ids out of the service-assigned UUID namespace used
// for group conversations, and the separator cannot appear inside a profile
// id (UUIDs and wa:<E.164> ids never contain an underscore).
const (
	directPrefix = "dm:"
	separator    = "_"
)

// DirectID derives the id of the direct conversation between two profiles.
// It is pure and commutative: DirectID(a, b) == DirectID(b, a).
func DirectID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return directPrefix + a + separator + b
}

// IsDirect reports whether id was derived by DirectID.
func IsDirect(id string) bool {
	return strings.HasPrefix(id, directPrefix)
}

// Parse splits a direct conversation id back into its participant pair.
// The result is a display hint only; the participants table stays the
// authority for access decisions.
func Parse(id string) (a, b string, ok bool) {
	if !strings.HasPrefix(id, directPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(id, directPrefix)
	parts := strings.SplitN(rest, separator, 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Peer returns the other participant of a direct conversation, or "" when
// the id is not direct or userID is not part of the pair.
func Peer(id, userID string) string {
	a, b, ok := Parse(id)
	if !ok {
		return ""
	}
	switch userID {
	case a:
		return b
	case b:
		return a
	}
	return ""
}
