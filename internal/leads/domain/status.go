// Package domain holds the pure lead lifecycle rules: the canonical status
// enum, the allowed-transition table, win probabilities and follow-up
// activity derivation. Nothing in this package touches storage.
package domain

import (
	"strings"
	"time"
)

// Status is the canonical pipeline status of a lead.
type Status string

const (
	StatusNew          Status = "new"
	StatusContacted    Status = "contacted"
	StatusProposalSent Status = "proposal-sent"
	StatusNegotiation  Status = "negotiation"
	StatusClosedWon    Status = "closed-won"
	StatusClosedLost   Status = "closed-lost"
)

// statusSynonyms maps legacy labels some views still send to the canonical enum.
var statusSynonyms = map[string]Status{
	"needs-analysis": StatusContacted,
	"qualified":      StatusContacted,
}

var knownStatuses = map[Status]struct{}{
	StatusNew:          {},
	StatusContacted:    {},
	StatusProposalSent: {},
	StatusNegotiation:  {},
	StatusClosedWon:    {},
	StatusClosedLost:   {},
}

// allowedTransitions is the status state machine. Terminal statuses have no
// outgoing edges; leaving them requires the explicit reopen override.
var allowedTransitions = map[Status]map[Status]bool{
	StatusNew:          {StatusContacted: true, StatusClosedLost: true},
	StatusContacted:    {StatusProposalSent: true, StatusClosedLost: true},
	StatusProposalSent: {StatusNegotiation: true, StatusClosedLost: true},
	StatusNegotiation:  {StatusClosedWon: true, StatusClosedLost: true},
	StatusClosedWon:    {},
	StatusClosedLost:   {},
}

// NormalizeStatus folds case and legacy synonyms into the canonical enum.
// Unknown values pass through unchanged so that Probability can still apply
// its fallback; IsKnownStatus rejects them at write time.
func NormalizeStatus(raw string) Status {
	normalized := Status(strings.ToLower(strings.TrimSpace(raw)))
	if canonical, ok := statusSynonyms[string(normalized)]; ok {
		return canonical
	}
	return normalized
}

// IsKnownStatus reports whether the status is part of the canonical enum.
func IsKnownStatus(s Status) bool {
	_, ok := knownStatuses[s]
	return ok
}

// IsTerminal reports whether the status ends the lead lifecycle.
func IsTerminal(s Status) bool {
	return s == StatusClosedWon || s == StatusClosedLost
}

// CanTransition reports whether a plain status write from one status to
// another is allowed.
func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

// Probability returns the win probability (percent) for a status.
// Unrecognized statuses default to 20.
func Probability(s Status) int {
	switch s {
	case StatusNew:
		return 10
	case StatusContacted:
		return 30
	case StatusProposalSent:
		return 50
	case StatusNegotiation:
		return 70
	case StatusClosedWon:
		return 100
	case StatusClosedLost:
		return 0
	default:
		return 20
	}
}

// Activity is the single pending follow-up action a status prescribes.
type Activity struct {
	Title string
	DueAt time.Time
}

// ActivityForStatus derives the follow-up activity created when a lead enters
// the given status. expectedClose, when set, takes precedence over the
// relative fallback for statuses tied to the close date. Statuses with no
// prescribed follow-up return ok=false.
func ActivityForStatus(s Status, expectedClose *time.Time, now time.Time) (Activity, bool) {
	switch s {
	case StatusContacted:
		return Activity{Title: "Send proposal", DueAt: now.AddDate(0, 0, 3)}, true
	case StatusProposalSent:
		due := now.AddDate(0, 0, 7)
		if expectedClose != nil {
			due = *expectedClose
		}
		return Activity{Title: "Follow up on proposal", DueAt: due}, true
	case StatusNegotiation:
		due := now.AddDate(0, 0, 2)
		if expectedClose != nil {
			due = *expectedClose
		}
		return Activity{Title: "Negotiation meeting", DueAt: due}, true
	default:
		return Activity{}, false
	}
}
