package shop

// StatusOperational is the business status of an open place.
const StatusOperational = "OPERATIONAL"

// DefaultMinRating is the lowest rating a rated place may have to be kept.
const DefaultMinRating = 3.0

// Reasons reported by Qualify.
const (
	ReasonNotOperational = "not_operational"
	ReasonLowRating      = "low_rating"
)

// Qualify reports whether a search result should become a shop. Places with a
// business status other than OPERATIONAL are rejected, as are rated places below
// minRating. A missing status or a zero rating (unrated) passes.
func Qualify(r SearchResult, minRating float64) (bool, string) {
	if r.BusinessStatus != "" && r.BusinessStatus != StatusOperational {
		return false, ReasonNotOperational
	}
	if r.Rating != nil && *r.Rating > 0 && *r.Rating < minRating {
		return false, ReasonLowRating
	}
	return true, ""
}
