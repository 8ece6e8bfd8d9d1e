package rating

import (
	"github.com/shopspring/decimal"
)

const (
	MinStars = 1
	MaxStars = 5
)

// Summary là aggregate của một tập rating đang active.
// Distribution chỉ phục vụ hiển thị, không được persist.
type Summary struct {
	AverageRating float64     `json:"average_rating"`
	TotalReviews  int         `json:"total_reviews"`
	Distribution  map[int]int `json:"rating_distribution"`
}

// Summarize computes the aggregate from scratch. An empty input yields 0/0.
// The mean is rounded half-up to one decimal place.
func Summarize(ratings []int) Summary {
	s := Summary{Distribution: emptyDistribution()}
	if len(ratings) == 0 {
		return s
	}

	var sum int64
	for _, r := range ratings {
		sum += int64(r)
		if r >= MinStars && r <= MaxStars {
			s.Distribution[r]++
		}
	}

	s.TotalReviews = len(ratings)
	s.AverageRating = roundMean(sum, int64(len(ratings)))
	return s
}

// roundMean: decimal.Round làm tròn half away from zero, với số dương
// chính là half-up (4.45 -> 4.5), không bị sai số float như math.Round(x*10)/10.
func roundMean(sum, count int64) float64 {
	avg := decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(1)
	return avg.InexactFloat64()
}

func emptyDistribution() map[int]int {
	d := make(map[int]int, MaxStars)
	for star := MinStars; star <= MaxStars; star++ {
		d[star] = 0
	}
	return d
}
