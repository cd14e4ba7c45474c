package metrics

import "time"

// ResultLabel enumerates operation outcomes for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// CompileMode labels compiler invocations.
type CompileMode string

const (
	ModeAOT      CompileMode = "aot"
	ModeOnDemand CompileMode = "on_demand"
)

// Recorder defines observability hooks. Implementations may forward to
// Prometheus or anything else; NoopRecorder is the default.
type Recorder interface {
	ObserveScanDuration(kind string, d time.Duration)
	SetDiscovered(kind string, n int)
	ObserveCompileDuration(mode CompileMode, d time.Duration, result ResultLabel)
	IncSandboxMessage(direction, msgType string)
	AddSandboxSessions(delta int)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(result ResultLabel)
	IncCacheInvalidation(kind string)
	ObserveHTTPRequest(method string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveScanDuration(string, time.Duration)                      {}
func (NoopRecorder) SetDiscovered(string, int)                                      {}
func (NoopRecorder) ObserveCompileDuration(CompileMode, time.Duration, ResultLabel) {}
func (NoopRecorder) IncSandboxMessage(string, string)                               {}
func (NoopRecorder) AddSandboxSessions(int)                                         {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)                             {}
func (NoopRecorder) IncBuildOutcome(ResultLabel)                                    {}
func (NoopRecorder) IncCacheInvalidation(string)                                    {}
func (NoopRecorder) ObserveHTTPRequest(string, int, time.Duration)                  {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
