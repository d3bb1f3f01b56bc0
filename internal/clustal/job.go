package clustal

import (
	"fmt"
	"strings"

	"github.com/jjtimmons/cox1/internal/errs"
)

// Status is the state of a remote alignment job.
type Status string

const (
	Submitted Status = "SUBMITTED"
	Running   Status = "RUNNING"
	Finished  Status = "FINISHED"
	Error     Status = "ERROR"
)

// Terminal is true for FINISHED and ERROR.
func (s Status) Terminal() bool {
	return s == Finished || s == Error
}

// Job is an alignment submitted to the service.
type Job struct {
	ID     string
	Status Status
}

// ParseStatus maps a status token from the service to a Status.
// QUEUED and PENDING are still waiting to run; FAILURE and NOT_FOUND are errors.
func ParseStatus(token string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "SUBMITTED", "QUEUED", "PENDING":
		return Submitted, nil
	case "RUNNING":
		return Running, nil
	case "FINISHED":
		return Finished, nil
	case "ERROR", "FAILURE", "NOT_FOUND":
		return Error, nil
	}
	return "", &errs.ParseError{Err: fmt.Errorf("unknown %s job status %q", service, token)}
}
