package ledger

import "time"

// DateLayout is the storage format of a budget date.
const DateLayout = "2006-01-02"

// BudgetDate returns the UTC calendar day of t.
func BudgetDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NextReset returns the next UTC midnight after t.
func NextReset(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// Record is the settled spend of one connection on one budget date.
type Record struct {
	connectionID       string
	budgetDate         string
	confirmedSpendSats uint64
	lastUpdatedAt      time.Time
}

// Reconstruct creates a Record from storage.
func Reconstruct(connectionID, budgetDate string, confirmed uint64, lastUpdatedAt time.Time) Record {
	return Record{
		connectionID:       connectionID,
		budgetDate:         budgetDate,
		confirmedSpendSats: confirmed,
		lastUpdatedAt:      lastUpdatedAt,
	}
}

// ConnectionID returns the owning connection.
func (r Record) ConnectionID() string { return r.connectionID }

// BudgetDate returns the day this record covers.
func (r Record) BudgetDate() string { return r.budgetDate }

// ConfirmedSpendSats returns the committed spend for the day.
func (r Record) ConfirmedSpendSats() uint64 { return r.confirmedSpendSats }

// LastUpdatedAt returns the time of the last commit.
func (r Record) LastUpdatedAt() time.Time { return r.lastUpdatedAt }
