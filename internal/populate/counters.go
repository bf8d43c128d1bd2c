package populate

import (
	"github.com/google/uuid"
)

// Counters aggregates the outcome of one run.
type Counters struct {
	RunID string `json:"run_id"`

	// Found counts every nearby-search result, filtered or not.
	Found int `json:"found"`
	// Inserted counts inserted shops, or shops that would be inserted in a dry run.
	Inserted int `json:"inserted"`
	// Skipped counts existing shops and failed dedup checks or inserts.
	Skipped int `json:"skipped"`
	// Filtered counts results rejected as closed or poorly rated.
	Filtered int `json:"filtered"`

	NearbyCalls  int `json:"nearby_calls"`
	DetailsCalls int `json:"details_calls"`

	Budget        int     `json:"budget"`
	BudgetReached bool    `json:"budget_reached"`
	DryRun        bool    `json:"dry_run"`
	CostUSD       float64 `json:"cost_usd"`
}

func newCounters(budget int, dryRun bool) *Counters {
	return &Counters{
		RunID:  uuid.New().String(),
		Budget: budget,
		DryRun: dryRun,
	}
}

// Calls is the number of billable requests issued so far.
func (c *Counters) Calls() int {
	return c.NearbyCalls + c.DetailsCalls
}

// exhausted reports whether no further request may be issued.
func (c *Counters) exhausted() bool {
	return c.Calls() >= c.Budget
}
