package review

import (
	"strings"

	"github.com/bimora/portal/internal/model"
	"golang.org/x/text/cases"
)

// NameKey is the identity a review author is deduplicated by: the name with
// surrounding whitespace trimmed and Unicode case folded.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Aggregate summarizes ratings as their mean rounded half up to one decimal
// place, and their count. An empty set yields {0, 0}.
func Aggregate(reviews []model.Review) model.RatingAggregate {
	n := len(reviews)
	if n == 0 {
		return model.RatingAggregate{}
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}

	// floor(10*sum/n + 1/2) without leaving integers.
	tenths := (20*sum + n) / (2 * n)
	return model.RatingAggregate{
		AverageRating: float64(tenths) / 10,
		TotalReviews:  n,
	}
}
