package steps

import "fmt"

type Status int

const (
	StatusStarting = iota
	StatusConditionNotMet
	StatusCompleted
	StatusFailed
)

func StatusToStr(status Status) string {
	switch status {
	case StatusStarting:
		return "STARTING"
	case StatusConditionNotMet:
		return "CONDITION_NOT_MET"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	default:
		panic("incorrect step status")
	}
}

// StepResult is the per-invocation outcome of a shrink stage. Completed and
// Failed are terminal for the stage; ConditionNotMet asks the driver to
// re-invoke later.
type StepResult struct {
	Status  Status
	Message string
	Cause   error
}

func (r StepResult) Terminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusFailed
}

func Starting() StepResult {
	return StepResult{Status: StatusStarting}
}

func NotMetf(format string, a ...any) StepResult {
	return StepResult{Status: StatusConditionNotMet, Message: fmt.Sprintf(format, a...)}
}

func Completedf(format string, a ...any) StepResult {
	return StepResult{Status: StatusCompleted, Message: fmt.Sprintf(format, a...)}
}

func Failedf(format string, a ...any) StepResult {
	return StepResult{Status: StatusFailed, Message: fmt.Sprintf(format, a...)}
}

func FailedErr(cause error, format string, a ...any) StepResult {
	return StepResult{Status: StatusFailed, Message: fmt.Sprintf(format, a...), Cause: cause}
}
