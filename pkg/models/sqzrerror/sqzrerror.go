package sqzrerror

import "fmt"

const (
	SQZR_UNEXPECTED      = "SQZRU"
	SQZR_METADATA        = "SQZRM"
	SQZR_PRECONDITION    = "SQZRP"
	SQZR_TIMEOUT         = "SQZRT"
	SQZR_TRANSPORT       = "SQZRN"
	SQZR_LOCK_ERROR      = "SQZRL"
	SQZR_NO_NODES        = "SQZRD"
	SQZR_CONFIG_ERROR    = "SQZRC"
	SQZR_NOT_IMPLEMENTED = "SQZRI"
)

var existingErrorCodeMap = map[string]string{
	SQZR_METADATA:        "action metadata not properly populated",
	SQZR_PRECONDITION:    "shrink precondition violated",
	SQZR_TIMEOUT:         "action timed out",
	SQZR_TRANSPORT:       "cluster transport error",
	SQZR_LOCK_ERROR:      "lock service error",
	SQZR_NO_NODES:        "no suitable destination node",
	SQZR_CONFIG_ERROR:    "invalid shrink configuration",
	SQZR_NOT_IMPLEMENTED: "not implemented",
}

func GetMessageByCode(errorCode string) string {
	rep, ok := existingErrorCodeMap[errorCode]
	if ok {
		return rep
	}
	return "Unexpected error"
}

var _ error = &SqzrError{}

type SqzrError struct {
	Err error

	ErrorCode string
}

func New(errorCode string, errorMsg string) *SqzrError {
	err := SqzrError{
		Err:       fmt.Errorf("%s", errorMsg),
		ErrorCode: errorCode,
	}
	return &err
}

func Newf(errorCode string, format string, a ...any) *SqzrError {
	err := SqzrError{
		Err:       fmt.Errorf(format, a...),
		ErrorCode: errorCode,
	}
	return &err
}

func (er *SqzrError) Error() string {
	return fmt.Sprintf("Code: %s. Name: %s. Description: %s.",
		er.ErrorCode, GetMessageByCode(er.ErrorCode), er.Err)
}

func (er *SqzrError) Unwrap() error {
	return er.Err
}
