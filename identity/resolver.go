package identity

import (
	"regexp"
	"slices"
	"strings"
)

// linkedSuffix matches the "(@username)" suffix the identity-linking bot
// appends to a member's display name, e.g. "PlayerOne (@roblox_user1)".
var linkedSuffix = regexp.MustCompile(`\(@(.+?)\)$`)

// ExtractExternalUsername returns the game username embedded in a linked
// member's display name. ok is false when the member has not linked an account.
func ExtractExternalUsername(displayName string) (username string, ok bool) {
	m := linkedSuffix.FindStringSubmatch(displayName)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsVerified reports whether roles contains verifiedRoleID. roles must come
// from a fresh member fetch: a cached copy may predate verification.
func IsVerified(roles []string, verifiedRoleID string) bool {
	if strings.TrimSpace(verifiedRoleID) == "" {
		return false
	}
	return slices.Contains(roles, verifiedRoleID)
}
