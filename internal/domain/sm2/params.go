package sm2

// Params defines the configurable parameters of the scheduling algorithm.
// The defaults reproduce the classic SM-2 schedule.
type Params struct {
	// MinEaseFactor is the floor applied to the ease factor after every review.
	MinEaseFactor float64

	// FirstInterval is the interval in days after the first qualifying
	// review of a streak.
	FirstInterval int

	// SecondInterval is the interval in days after the second consecutive
	// qualifying review.
	SecondInterval int

	// PassingQuality is the minimum quality score that counts as a
	// successful recall. Anything below it resets the streak.
	PassingQuality int

	// MaxQuality is the upper bound of the quality scale.
	MaxQuality int
}

// NewDefaultParams creates a Params instance with the standard SM-2 values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor:  1.3,
		FirstInterval:  1,
		SecondInterval: 6,
		PassingQuality: 3,
		MaxQuality:     5,
	}
}
