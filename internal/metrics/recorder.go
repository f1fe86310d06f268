package metrics

import "time"

// Recorder defines observability hooks for served requests.
type Recorder interface {
	ObserveRequest(method string, status int, d time.Duration)
	AddBytesServed(n int)
	IncPanics()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequest(string, int, time.Duration) {}
func (NoopRecorder) AddBytesServed(int)                        {}
func (NoopRecorder) IncPanics()                                {}
