// Package rules holds the stateless content and context predicates used
// by the moderation engine. All checks are pure functions and safe for
// concurrent use.
//
// Keyword and invite checks are plain substring matches with no word
// boundaries ("bot" matches inside "robotics"). That over-triggers on
// purpose: it mirrors the established detection behavior, and the ledger
// thresholds absorb isolated false positives.
package rules

import (
	"strings"
	"time"
)

// suspiciousKeywords flag content associated with cheating, automation,
// or attack tooling.
var suspiciousKeywords = []string{
	"hack", "cheat", "exploit", "crack", "bypass",
	"ddos", "bot", "script", "auto", "macro",
}

// inviteMarkers are the URL fragments of third-party server invites.
var inviteMarkers = []string{
	"discord.gg/",
	"discordapp.com/invite/",
}

// NewAccountAge is the account age under which a joining member is
// flagged as a new account.
const NewAccountAge = 7 * 24 * time.Hour

// MatchesSuspiciousKeyword reports whether text contains any suspicious
// keyword. Matching is case-insensitive and short-circuits on the first hit.
func MatchesSuspiciousKeyword(text string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range suspiciousKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// ContainsInviteLink reports whether text contains a server invite link.
func ContainsInviteLink(text string) bool {
	lowered := strings.ToLower(text)
	for _, marker := range inviteMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// IsNewAccount reports whether an account created at createdAt is younger
// than NewAccountAge as of now.
func IsNewAccount(createdAt, now time.Time) bool {
	return now.Sub(createdAt) < NewAccountAge
}

// AccountAgeDays returns the account age in whole days as of now.
func AccountAgeDays(createdAt, now time.Time) int {
	return int(now.Sub(createdAt).Hours() / 24)
}
