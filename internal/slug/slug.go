// Package slug builds short, filesystem-safe names.
package slug

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

// Pre-compiled regex for sanitization (compiled once at package init)
var unsafeRunRegex = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DigestLength is the number of hex characters kept from a digest.
const DigestLength = 12

// Fallback is returned by Sanitize when nothing safe remains.
const Fallback = "state"

// Sanitize converts a string to a filesystem-safe name.
// Examples:
//   - local-my repo-0123456789ab -> local-my-repo-0123456789ab
//   - /srv/data/ -> srv-data
func Sanitize(name string) string {
	// Replace each run of unsafe characters with a single hyphen
	name = unsafeRunRegex.ReplaceAllString(name, "-")

	name = strings.Trim(name, "-")

	if name == "" {
		return Fallback
	}
	return name
}

// Digest returns the first DigestLength hex characters of the SHA-1 of s.
// The algorithm is fixed: slugs are persisted as file names and compared
// across runs.
func Digest(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:DigestLength]
}

// Join sanitizes the hyphen-joined parts.
func Join(parts ...string) string {
	return Sanitize(strings.Join(parts, "-"))
}
