package review

import (
	"testing"

	"github.com/bimora/portal/internal/model"
)

func ratings(rs ...int) []model.Review {
	out := make([]model.Review, len(rs))
	for i, r := range rs {
		out[i] = model.Review{Rating: r}
	}
	return out
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name    string
		reviews []model.Review
		want    model.RatingAggregate
	}{
		{"empty", nil, model.RatingAggregate{}},
		{"single", ratings(4), model.RatingAggregate{AverageRating: 4, TotalReviews: 1}},
		{"exact half", ratings(4, 5), model.RatingAggregate{AverageRating: 4.5, TotalReviews: 2}},
		{"rounds down", ratings(4, 4, 5), model.RatingAggregate{AverageRating: 4.3, TotalReviews: 3}},
		{"rounds up", ratings(1, 2, 2), model.RatingAggregate{AverageRating: 1.7, TotalReviews: 3}},
		{"half rounds up", ratings(4, 4, 4, 5), model.RatingAggregate{AverageRating: 4.3, TotalReviews: 4}},
		{"all ones", ratings(1, 1, 1), model.RatingAggregate{AverageRating: 1, TotalReviews: 3}},
		{"all fives", ratings(5, 5), model.RatingAggregate{AverageRating: 5, TotalReviews: 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Aggregate(tc.reviews); got != tc.want {
				t.Errorf("Aggregate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestAggregateBounds(t *testing.T) {
	// Every multiset of up to four ratings stays within [1, 5] and counts
	// every review.
	var walk func(prefix []int)
	walk = func(prefix []int) {
		if len(prefix) > 0 {
			agg := Aggregate(ratings(prefix...))
			if agg.TotalReviews != len(prefix) {
				t.Fatalf("%v: total = %d", prefix, agg.TotalReviews)
			}
			if agg.AverageRating < MinRating || agg.AverageRating > MaxRating {
				t.Fatalf("%v: average %v out of range", prefix, agg.AverageRating)
			}
		}
		if len(prefix) == 4 {
			return
		}
		for r := MinRating; r <= MaxRating; r++ {
			walk(append(prefix, r))
		}
	}
	walk(nil)
}

func TestNameKey(t *testing.T) {
	same := [][2]string{
		{"Alice", "alice"},
		{"  Alice ", "ALICE"},
		{"Émile", "émile"},
		{"ΣΟΦΊΑ", "σοφία"},
	}
	for _, pair := range same {
		if NameKey(pair[0]) != NameKey(pair[1]) {
			t.Errorf("NameKey(%q) != NameKey(%q)", pair[0], pair[1])
		}
	}

	if NameKey("Alice") == NameKey("Alicia") {
		t.Error("different names must not collide")
	}
	if NameKey("al ice") == NameKey("alice") {
		t.Error("inner whitespace is significant")
	}
}
