package domain

import "testing"

func TestMayTransitionTable(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusAuthorized},
		{StatusPending, StatusCaptured},
		{StatusAuthorized, StatusCaptured},
		{StatusAuthorized, StatusCaptureDeclined},
		{StatusAuthorized, StatusCanceled},
		{StatusCaptured, StatusRefundInitiated},
		{StatusRefundInitiated, StatusRefunded},
		{StatusRefundInitiated, StatusRefundDeclined},
	}
	allowedSet := map[[2]Status]bool{}
	for _, tr := range allowed {
		allowedSet[[2]Status{tr.from, tr.to}] = true
		if !MayTransition(tr.from, tr.to) {
			t.Errorf("MayTransition(%s, %s) = false, want true", tr.from, tr.to)
		}
	}

	all := []Status{
		StatusPending, StatusAuthorized, StatusCaptured, StatusCaptureDeclined,
		StatusCanceled, StatusRefundInitiated, StatusRefunded, StatusRefundDeclined,
	}
	for _, from := range all {
		for _, to := range all {
			if allowedSet[[2]Status{from, to}] {
				continue
			}
			if MayTransition(from, to) {
				t.Errorf("MayTransition(%s, %s) = true, want false", from, to)
			}
		}
	}
}

func TestEveryTransitionHasAStampColumn(t *testing.T) {
	targets := []Status{
		StatusAuthorized, StatusCaptured, StatusCaptureDeclined, StatusCanceled,
		StatusRefundInitiated, StatusRefunded, StatusRefundDeclined,
	}
	seen := map[string]Status{}
	for _, target := range targets {
		col := StampColumn(target)
		if col == "" {
			t.Errorf("StampColumn(%s) is empty", target)
			continue
		}
		if prev, dup := seen[col]; dup {
			t.Errorf("stamp column %q shared by %s and %s", col, prev, target)
		}
		seen[col] = target
	}
}

func TestSettled(t *testing.T) {
	if StatusPending.Settled() {
		t.Error("pending must not be settled")
	}
	for _, s := range []Status{
		StatusAuthorized, StatusCaptured, StatusCaptureDeclined, StatusCanceled,
		StatusRefundInitiated, StatusRefunded, StatusRefundDeclined,
	} {
		if !s.Settled() {
			t.Errorf("%s must be settled", s)
		}
	}
}
