package metrics

import "time"

// Recorder observes fetch and cache activity.
type Recorder interface {
	FetchRequested(policy string)
	FetchCompleted(outcome string, d time.Duration)
	CacheLookup(hit bool)
	Coalesced()
}

// Nop discards everything.
type Nop struct{}

func (Nop) FetchRequested(string) {}
func (Nop) FetchCompleted(string, time.Duration) {}
func (Nop) CacheLookup(bool) {}
func (Nop) Coalesced() {}
