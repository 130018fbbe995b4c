package domain

import (
	"testing"
	"time"
)

func TestProbability_Table(t *testing.T) {
	cases := []struct {
		status Status
		want   int
	}{
		{StatusNew, 10},
		{StatusContacted, 30},
		{StatusProposalSent, 50},
		{StatusNegotiation, 70},
		{StatusClosedWon, 100},
		{StatusClosedLost, 0},
		{Status("imported"), 20},
		{Status(""), 20},
	}

	for _, tc := range cases {
		if got := Probability(tc.status); got != tc.want {
			t.Fatalf("Probability(%q): expected %d, got %d", tc.status, tc.want, got)
		}
	}
}

func TestNormalizeStatus_FoldsSynonyms(t *testing.T) {
	cases := map[string]Status{
		"needs-analysis": StatusContacted,
		"Qualified":      StatusContacted,
		"CONTACTED":      StatusContacted,
		" proposal-sent": StatusProposalSent,
		"garbage":        Status("garbage"),
	}

	for input, want := range cases {
		if got := NormalizeStatus(input); got != want {
			t.Fatalf("NormalizeStatus(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestCanTransition_FollowsPipeline(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusNew, StatusContacted},
		{StatusContacted, StatusProposalSent},
		{StatusProposalSent, StatusNegotiation},
		{StatusNegotiation, StatusClosedWon},
		{StatusNew, StatusClosedLost},
		{StatusNegotiation, StatusClosedLost},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusNew, StatusNegotiation},
		{StatusContacted, StatusClosedWon},
		{StatusClosedWon, StatusNegotiation},
		{StatusClosedLost, StatusNew},
		{StatusNegotiation, StatusNew},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusClosedWon) || !IsTerminal(StatusClosedLost) {
		t.Fatalf("expected closed statuses to be terminal")
	}
	if IsTerminal(StatusNegotiation) {
		t.Fatalf("expected negotiation to be non-terminal")
	}
}

func TestActivityForStatus(t *testing.T) {
	now := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	expectedClose := time.Date(2024, time.June, 20, 0, 0, 0, 0, time.UTC)

	activity, ok := ActivityForStatus(StatusContacted, nil, now)
	if !ok {
		t.Fatalf("expected contacted to prescribe an activity")
	}
	if activity.Title != "Send proposal" {
		t.Fatalf("unexpected title %q", activity.Title)
	}
	if want := now.AddDate(0, 0, 3); !activity.DueAt.Equal(want) {
		t.Fatalf("expected due %s, got %s", want, activity.DueAt)
	}

	activity, ok = ActivityForStatus(StatusProposalSent, &expectedClose, now)
	if !ok || !activity.DueAt.Equal(expectedClose) {
		t.Fatalf("expected proposal follow-up due at expected close date")
	}

	activity, ok = ActivityForStatus(StatusProposalSent, nil, now)
	if !ok {
		t.Fatalf("expected proposal-sent to prescribe an activity")
	}
	if want := now.AddDate(0, 0, 7); !activity.DueAt.Equal(want) {
		t.Fatalf("expected fallback due %s, got %s", want, activity.DueAt)
	}

	activity, ok = ActivityForStatus(StatusNegotiation, nil, now)
	if !ok {
		t.Fatalf("expected negotiation to prescribe an activity")
	}
	if want := now.AddDate(0, 0, 2); !activity.DueAt.Equal(want) {
		t.Fatalf("expected fallback due %s, got %s", want, activity.DueAt)
	}

	for _, s := range []Status{StatusNew, StatusClosedWon, StatusClosedLost} {
		if _, ok := ActivityForStatus(s, nil, now); ok {
			t.Fatalf("expected %s to prescribe no activity", s)
		}
	}
}
