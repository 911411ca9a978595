package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func debit(id, d int, amount string) Entry {
	return Entry{ID: id, Date: day(d), Debit: decimal.RequireFromString(amount)}
}

func credit(id, d int, amount string) Entry {
	return Entry{ID: id, Date: day(d), Credit: decimal.RequireFromString(amount)}
}

func TestRunningBalancesAccumulateDebitsMinusCredits(t *testing.T) {
	// GIVEN debit 100 (Jan 1), credit 40 (Jan 5), debit 20 (Jan 10)
	entries := []Entry{
		debit(1, 1, "100"),
		credit(2, 5, "40"),
		debit(3, 10, "20"),
	}

	// WHEN running balances are derived
	lines := RunningBalances(entries)

	// THEN the balances are 100, 60, 80 and the last equals the current balance
	want := []string{"100", "60", "80"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i, w := range want {
		if !lines[i].RunningBalance.Equal(decimal.RequireFromString(w)) {
			t.Errorf("running balance[%d] = %s, want %s", i, lines[i].RunningBalance, w)
		}
	}
	if !CurrentBalance(entries).Equal(decimal.RequireFromString("80")) {
		t.Errorf("current balance = %s, want 80", CurrentBalance(entries))
	}
	if !lines[len(lines)-1].RunningBalance.Equal(CurrentBalance(entries)) {
		t.Error("last running balance must equal current balance")
	}
}

func TestSeededDerivationMatchesFullHistoryOnALaterPage(t *testing.T) {
	// GIVEN the statement debit 100 (Jan 1), credit 40 (Jan 5), debit 20
	// (Jan 10), paged so the first entry falls before the page
	full := []Entry{
		debit(1, 1, "100"),
		credit(2, 5, "40"),
		debit(3, 10, "20"),
	}
	page := full[1:]
	opening := CurrentBalance(full[:1])

	// WHEN balances are derived over the page seeded with the opening balance
	lines := RunningBalancesFrom(page, opening)

	// THEN each line matches the derivation over the whole history, not a
	// page-local count from zero
	whole := RunningBalances(full)
	if !lines[0].RunningBalance.Equal(whole[1].RunningBalance) {
		t.Errorf("page balance[0] = %s, want %s", lines[0].RunningBalance, whole[1].RunningBalance)
	}
	if !lines[1].RunningBalance.Equal(whole[2].RunningBalance) {
		t.Errorf("page balance[1] = %s, want %s", lines[1].RunningBalance, whole[2].RunningBalance)
	}
	if !lines[0].RunningBalance.Equal(decimal.RequireFromString("60")) {
		t.Errorf("page balance[0] = %s, want 60", lines[0].RunningBalance)
	}

	// AND a zero opening balance reproduces the plain derivation
	unseeded := RunningBalancesFrom(full, decimal.Zero)
	for i := range whole {
		if !unseeded[i].RunningBalance.Equal(whole[i].RunningBalance) {
			t.Errorf("unseeded balance[%d] = %s, want %s", i, unseeded[i].RunningBalance, whole[i].RunningBalance)
		}
	}
}

func TestMisorderedFeedIsResortedBeforeDeriving(t *testing.T) {
	// GIVEN the same entries arriving out of date order
	entries := []Entry{
		debit(3, 10, "20"),
		debit(1, 1, "100"),
		credit(2, 5, "40"),
	}

	// WHEN running balances are derived
	lines := RunningBalances(entries)

	// THEN the deriver re-sorts by date and the balances match the ordered feed
	if lines[0].ID != 1 || lines[1].ID != 2 || lines[2].ID != 3 {
		t.Fatalf("entries not re-sorted by date: got order %d,%d,%d", lines[0].ID, lines[1].ID, lines[2].ID)
	}
	if !lines[2].RunningBalance.Equal(decimal.RequireFromString("80")) {
		t.Errorf("final balance = %s, want 80", lines[2].RunningBalance)
	}
}

func TestSameDayEntriesKeepFeedOrder(t *testing.T) {
	// GIVEN two same-day entries
	entries := []Entry{
		debit(1, 1, "50"),
		credit(2, 1, "30"),
	}

	lines := RunningBalances(entries)

	// THEN the stable sort keeps their original order
	if lines[0].ID != 1 || lines[1].ID != 2 {
		t.Fatalf("same-day entries reordered: got %d,%d", lines[0].ID, lines[1].ID)
	}
	if !lines[1].RunningBalance.Equal(decimal.RequireFromString("20")) {
		t.Errorf("final balance = %s, want 20", lines[1].RunningBalance)
	}
}

func TestUtilizationThresholds(t *testing.T) {
	cases := []struct {
		balance string
		limit   string
		want    UtilizationLevel
	}{
		{"900", "1000", UtilizationCritical}, // exactly 90%
		{"899.99", "1000", UtilizationWarning},
		{"750", "1000", UtilizationWarning}, // exactly 75%
		{"749.99", "1000", UtilizationNormal},
		{"0", "1000", UtilizationNormal},
		{"1500", "1000", UtilizationCritical}, // over the limit
	}

	for _, tc := range cases {
		entries := []Entry{debit(1, 1, tc.balance)}
		state := DeriveAccountState(entries, decimal.RequireFromString(tc.limit))
		if state.Level != tc.want {
			t.Errorf("balance %s / limit %s: level = %s, want %s", tc.balance, tc.limit, state.Level, tc.want)
		}
		if state.UtilizationPercent == nil {
			t.Errorf("balance %s / limit %s: utilization must be present", tc.balance, tc.limit)
		}
	}
}

func TestZeroCreditLimitMeansUtilizationNotApplicable(t *testing.T) {
	// GIVEN a customer with no credit limit configured
	entries := []Entry{debit(1, 1, "500")}

	// WHEN the account state is derived with a zero limit
	state := DeriveAccountState(entries, decimal.Zero)

	// THEN utilization is absent rather than a division fault
	if state.UtilizationPercent != nil {
		t.Errorf("utilization = %s, want nil for zero credit limit", state.UtilizationPercent)
	}
	if state.Level != UtilizationNotApplicable {
		t.Errorf("level = %s, want %s", state.Level, UtilizationNotApplicable)
	}
	if !state.CurrentBalance.Equal(decimal.RequireFromString("500")) {
		t.Errorf("current balance = %s, want 500", state.CurrentBalance)
	}
}

func TestEmptyLedgerDerivesZeroBalance(t *testing.T) {
	if got := CurrentBalance(nil); !got.IsZero() {
		t.Errorf("current balance of empty ledger = %s, want 0", got)
	}
	if lines := RunningBalances(nil); len(lines) != 0 {
		t.Errorf("got %d statement lines for empty ledger, want 0", len(lines))
	}
}
