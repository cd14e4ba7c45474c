package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/prev/internal/config"
)

// Service executes production builds.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains all inputs required to execute a build.
type Request struct {
	// Root is the project directory to scan.
	Root string

	// OutputDir receives the static site. It is emptied first.
	OutputDir string

	// Config is the loaded project configuration.
	Config *config.Config

	Options Options
}

// Options tune build behavior.
type Options struct {
	// Concurrency bounds parallel preview compiles (0 = one per CPU).
	Concurrency int

	// NoCache disables artifact cache reads. Fresh artifacts are still stored.
	NoCache bool
}

// PreviewFailure records one preview that did not compile.
type PreviewFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Result contains the outcome of a build.
type Result struct {
	ID         string           `json:"id"`
	Status     Status           `json:"status"`
	OutputPath string           `json:"outputPath"`
	Pages      int              `json:"pages"`
	Previews   int              `json:"previews"`
	CacheHits  int              `json:"cacheHits"`
	Failures   []PreviewFailure `json:"failures,omitempty"`
	StartTime  time.Time        `json:"startTime"`
	EndTime    time.Time        `json:"endTime"`
	Duration   time.Duration    `json:"duration"`
}

// Status represents the outcome of a build.
type Status string

const (
	// StatusSuccess indicates every page and preview was built.
	StatusSuccess Status = "success"

	// StatusPartial indicates the site was written but some previews failed.
	StatusPartial Status = "partial"

	// StatusFailed indicates the build stopped before completing.
	StatusFailed Status = "failed"

	// StatusCanceled indicates the build was canceled.
	StatusCanceled Status = "canceled"
)

// IsSuccess returns true if every artifact was produced.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
