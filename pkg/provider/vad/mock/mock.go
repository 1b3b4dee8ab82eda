// Package mock provides an in-memory mock implementation of the
// [vad.Classifier] interface for use in unit tests.
package mock

import (
	"sync"

	"github.com/easimeng/anglo/pkg/provider/vad"
)

// Classifier is a mock implementation of [vad.Classifier]. It serves the
// scripted Decisions in order; once exhausted it repeats the last decision.
type Classifier struct {
	mu sync.Mutex

	// Decisions is the scripted sequence of results served by Classify.
	Decisions []bool

	// Errors, when non-nil, is consulted in parallel to Decisions: a
	// non-nil entry at the current index is returned as the error for that
	// call. Entries past the end of Errors are treated as nil.
	Errors []error

	// ClassifyError, when set, is returned by every Classify call. Takes
	// precedence over Errors.
	ClassifyError error

	// CallCountClassify records how many times Classify was called.
	CallCountClassify int

	// CallCountClose records how many times Close was called.
	CallCountClose int

	// RecordedWindows holds the sample count of each window passed to
	// Classify, in order.
	RecordedWindows []int

	next int
}

// Classify implements [vad.Classifier].
func (c *Classifier) Classify(samples []float32) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.CallCountClassify++
	c.RecordedWindows = append(c.RecordedWindows, len(samples))

	if c.ClassifyError != nil {
		return false, c.ClassifyError
	}

	if len(c.Decisions) == 0 {
		return false, nil
	}

	i := min(c.next, len(c.Decisions)-1)
	c.next++

	var err error
	if i < len(c.Errors) {
		err = c.Errors[i]
	}
	return c.Decisions[i], err
}

// Close implements [vad.Classifier].
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CallCountClose++
	return nil
}

var _ vad.Classifier = (*Classifier)(nil)
