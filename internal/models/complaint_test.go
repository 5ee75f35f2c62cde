package models

import "testing"

func TestCanTransitionFollowsPipeline(t *testing.T) {
	cases := []struct {
		from, to ComplaintStatus
		want     bool
	}{
		{ComplaintStatusNew, ComplaintStatusReceived, true},
		{ComplaintStatusReceived, ComplaintStatusDiscussing, true},
		{ComplaintStatusDiscussing, ComplaintStatusProcessing, true},
		{ComplaintStatusProcessing, ComplaintStatusResolved, true},
		// no skipping steps
		{ComplaintStatusNew, ComplaintStatusDiscussing, false},
		{ComplaintStatusReceived, ComplaintStatusResolved, false},
		// no going backwards
		{ComplaintStatusResolved, ComplaintStatusProcessing, false},
		{ComplaintStatusReceived, ComplaintStatusNew, false},
		// archived is reachable from any non-new state
		{ComplaintStatusReceived, ComplaintStatusArchived, true},
		{ComplaintStatusDiscussing, ComplaintStatusArchived, true},
		{ComplaintStatusResolved, ComplaintStatusArchived, true},
		{ComplaintStatusNew, ComplaintStatusArchived, false},
		// archived is terminal
		{ComplaintStatusArchived, ComplaintStatusReceived, false},
		{ComplaintStatusArchived, ComplaintStatusArchived, false},
		// unknown states never transition
		{ComplaintStatus("bogus"), ComplaintStatusReceived, false},
		{ComplaintStatusNew, ComplaintStatus("bogus"), false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []ComplaintStatus{ComplaintStatusNew, ComplaintStatusReceived, ComplaintStatusDiscussing, ComplaintStatusProcessing, ComplaintStatusResolved, ComplaintStatusArchived} {
		if !IsValidStatus(s) {
			t.Errorf("IsValidStatus(%q) = false", s)
		}
	}
	if IsValidStatus("closed") {
		t.Error("IsValidStatus accepted an unknown status")
	}
}
