package tutor

import (
	"time"
)

const (
	DefaultMaxRetries = 5
	DefaultTimeUnit   = time.Millisecond

	backoffBase = 1000
)

// Policy is the retry budget of one question.
// The wait after a failed attempt k (0-indexed) is 2^k * 1000 * TimeUnit.
type Policy struct {
	MaxRetries uint
	TimeUnit   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		TimeUnit:   DefaultTimeUnit,
	}
}

// Attempts is the initial attempt plus MaxRetries.
func (p Policy) Attempts() uint {
	return p.MaxRetries + 1
}

// Delay does not depend on how long earlier attempts took.
func (p Policy) Delay(attempt uint) time.Duration {
	return time.Duration(1<<attempt) * backoffBase * p.TimeUnit
}

// WorstCaseBackoff is the total wait when every attempt fails.
func (p Policy) WorstCaseBackoff() time.Duration {
	var total time.Duration
	for k := uint(0); k < p.MaxRetries; k++ {
		total += p.Delay(k)
	}
	return total
}
