package sm2

import (
	"math"
	"time"

	"github.com/rotelab/rote-api/internal/domain"
)

// nextEaseFactor computes the updated ease factor after a successful review.
//
// The adjustment is the standard SM-2 formula: perfect recall (quality 5)
// raises the ease factor by 0.1, while harder recalls lower it, down to -0.14
// for a quality-3 pass. Failed reviews do not call this function; the failure
// branch leaves the ease factor untouched apart from the floor clamp applied
// by the caller.
func nextEaseFactor(currentEF float64, quality int) float64 {
	q := float64(quality)
	return currentEF + 0.1 - (5-q)*(0.08+(5-q)*0.02)
}

// nextInterval computes the interval in days after a qualifying review.
//
// streak is the consecutive-success counter including this review. The first
// success of a streak schedules one day out, the second six days, and from
// the third on the previous interval is multiplied by the previous ease
// factor and rounded to the nearest day. Both inputs are the values from
// before this review's ease-factor update.
func nextInterval(prevInterval int, prevEF float64, streak int, params *Params) int {
	switch {
	case streak <= 1:
		return params.FirstInterval
	case streak == 2:
		return params.SecondInterval
	default:
		return int(math.Round(float64(prevInterval) * prevEF))
	}
}

// reviewTransition applies a single review event to a card and returns the
// updated copy. The input card is never mutated.
//
// The update order is load-bearing: the running mean of response times uses
// the pre-increment TimesReviewed, and the interval growth uses the interval
// and ease factor from before this review.
func reviewTransition(
	card *domain.Flashcard,
	quality int,
	responseTime *float64,
	now time.Time,
	params *Params,
) *domain.Flashcard {
	next := card.Clone()

	if responseTime != nil {
		prior := float64(next.Stats.TimesReviewed)
		next.Stats.AverageResponseTime =
			(next.Stats.AverageResponseTime*prior + *responseTime) / (prior + 1)
	}

	next.Stats.TimesReviewed++
	reviewedAt := now
	next.Stats.LastReviewed = &reviewedAt

	next.ReviewData.ReviewCount++

	if quality >= params.PassingQuality {
		next.Stats.CorrectAnswers++
		next.ReviewData.Interval = nextInterval(
			card.ReviewData.Interval,
			card.ReviewData.EaseFactor,
			next.ReviewData.ReviewCount,
			params,
		)
		next.ReviewData.EaseFactor = nextEaseFactor(card.ReviewData.EaseFactor, quality)
	} else {
		next.Stats.IncorrectAnswers++
		next.ReviewData.ReviewCount = 0
		next.ReviewData.Interval = params.FirstInterval
	}

	if next.ReviewData.EaseFactor < params.MinEaseFactor {
		next.ReviewData.EaseFactor = params.MinEaseFactor
	}

	next.ReviewData.NextReview = now.AddDate(0, 0, next.ReviewData.Interval)
	next.UpdatedAt = now

	return next
}
