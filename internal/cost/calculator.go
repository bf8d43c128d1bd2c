// Package cost estimates the spend of a populate run.
package cost

// Rates holds per-provider pricing configuration.
type Rates struct {
	Places PlacesRate `yaml:"places" mapstructure:"places"`
}

// PlacesRate holds Google Places pricing in USD per request.
type PlacesRate struct {
	NearbySearch float64 `yaml:"nearby_search" mapstructure:"nearby_search"`
	Details      float64 `yaml:"details" mapstructure:"details"`
	// MonthlyCredit is the free usage granted each month.
	MonthlyCredit float64 `yaml:"monthly_credit" mapstructure:"monthly_credit"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Places computes the list price of nearby-search and details requests.
func (c *Calculator) Places(nearby, details int) float64 {
	return float64(nearby)*c.rates.Places.NearbySearch + float64(details)*c.rates.Places.Details
}

// Billable returns the part of usd not covered by the monthly credit.
func (c *Calculator) Billable(usd float64) float64 {
	if usd <= c.rates.Places.MonthlyCredit {
		return 0
	}
	return usd - c.rates.Places.MonthlyCredit
}

// WorstCase is the price of a run that spends its whole budget, each nearby search
// followed by detailsPerSearch details lookups.
func (c *Calculator) WorstCase(budget int, detailsPerSearch float64) float64 {
	if budget <= 0 {
		return 0
	}
	perSearch := c.rates.Places.NearbySearch + detailsPerSearch*c.rates.Places.Details
	searches := float64(budget) / (1 + detailsPerSearch)
	return searches * perSearch
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Places: PlacesRate{
			NearbySearch:  0.032,
			Details:       0.017,
			MonthlyCredit: 200.00,
		},
	}
}
