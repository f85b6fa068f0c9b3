package api

import "testing"

func TestSubmissionQuotaAllowsUpToTheCapPerEpoch(t *testing.T) {
	q := newSubmissionQuota(2, 10)

	if err := q.allow("alice", 0); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	if err := q.allow("alice", 1); err != nil {
		t.Fatalf("second submission: %v", err)
	}
	if err := q.allow("alice", 2); err == nil {
		t.Fatalf("expected a third submission in the same epoch to be rejected")
	}
}

func TestSubmissionQuotaResetsOnNewEpoch(t *testing.T) {
	q := newSubmissionQuota(1, 10)

	if err := q.allow("alice", 5); err != nil {
		t.Fatalf("submission in epoch 0: %v", err)
	}
	if err := q.allow("alice", 9); err == nil {
		t.Fatalf("expected the cap to hold for the rest of epoch 0")
	}
	if err := q.allow("alice", 10); err != nil {
		t.Fatalf("expected a fresh allowance once epoch 1 begins, got %v", err)
	}
}

func TestSubmissionQuotaTracksSignersIndependently(t *testing.T) {
	q := newSubmissionQuota(1, 10)

	if err := q.allow("alice", 0); err != nil {
		t.Fatalf("alice: %v", err)
	}
	if err := q.allow("bob", 0); err != nil {
		t.Fatalf("expected bob's allowance to be independent of alice's, got %v", err)
	}
}

func TestSubmissionQuotaDisabledWhenMaxIsZero(t *testing.T) {
	q := newSubmissionQuota(0, 10)
	for i := uint64(0); i < 100; i++ {
		if err := q.allow("alice", i); err != nil {
			t.Fatalf("expected a zero max to disable the quota entirely, got %v", err)
		}
	}
}

func TestSubmissionQuotaNilReceiverAllowsEverything(t *testing.T) {
	var q *submissionQuota
	if err := q.allow("alice", 0); err != nil {
		t.Fatalf("expected a nil quota to be a no-op, got %v", err)
	}
}
