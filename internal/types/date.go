package types

import "time"

// LastDayOfMonth returns the number of days in the month of t
func LastDayOfMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// BillingDueDay resolves a configured billing day against a concrete
// month, clamping day 29-31 to the last day of shorter months
func BillingDueDay(now time.Time, billingDay int) int {
	last := LastDayOfMonth(now)
	if billingDay > last {
		return last
	}
	return billingDay
}

// IsBillingDue reports whether now falls on the subscriber's billing day
func IsBillingDue(now time.Time, billingDay int) bool {
	return now.Day() == BillingDueDay(now, billingDay)
}

// NextBillingDate returns the next date on or after now on which the
// billing day falls
func NextBillingDate(now time.Time, billingDay int) time.Time {
	due := BillingDueDay(now, billingDay)
	if now.Day() <= due {
		return time.Date(now.Year(), now.Month(), due, 0, 0, 0, 0, now.Location())
	}
	next := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)
	return time.Date(next.Year(), next.Month(), BillingDueDay(next, billingDay), 0, 0, 0, 0, now.Location())
}
