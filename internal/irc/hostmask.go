// ABOUTME: IRC hostmask wildcard matching for admin gating.

package irc

import "strings"

// matchHostmask reports whether a nick!user@host matches an IRC-style
// wildcard pattern. * matches any run of characters, ? matches exactly one.
// Matching is case-insensitive, as nicks and hostnames are on IRC.
func matchHostmask(pattern, hostmask string) bool {
	return matchFold(strings.ToLower(pattern), strings.ToLower(hostmask))
}

func matchFold(pattern, s string) bool {
	// Iterative glob match with single-star backtracking.
	var starPat, starStr = -1, 0
	p, i := 0, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[i]):
			p++
			i++
		case p < len(pattern) && pattern[p] == '*':
			starPat = p
			starStr = i
			p++
		case starPat >= 0:
			starStr++
			i = starStr
			p = starPat + 1
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
