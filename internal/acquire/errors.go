package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotApplicable    = errors.New("стратегия неприменима")
	ErrTimeout          = errors.New("таймаут ожидания")
	ErrValidationFailed = errors.New("полученные данные не прошли проверку")
	ErrTransport        = errors.New("ошибка сети")
	ErrMissingFormField = errors.New("в форме нет обязательного поля")
	ErrUnexpected       = errors.New("непредвиденная ошибка")
	ErrExhausted        = errors.New("все стратегии исчерпаны")
)

type FailureKind int

const (
	FailureNotApplicable FailureKind = iota
	FailureTimeout
	FailureValidation
	FailureTransport
	FailureMissingFormField
	FailureUnexpected
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotApplicable:
		return "not_applicable"
	case FailureTimeout:
		return "timeout"
	case FailureValidation:
		return "validation_failed"
	case FailureTransport:
		return "transport_error"
	case FailureMissingFormField:
		return "missing_form_field"
	case FailureUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

func (k FailureKind) sentinel() error {
	switch k {
	case FailureNotApplicable:
		return ErrNotApplicable
	case FailureTimeout:
		return ErrTimeout
	case FailureValidation:
		return ErrValidationFailed
	case FailureTransport:
		return ErrTransport
	case FailureMissingFormField:
		return ErrMissingFormField
	default:
		return ErrUnexpected
	}
}

// StrategyError описывает, почему стратегия не дала артефакт.
type StrategyError struct {
	Kind     FailureKind
	Strategy StrategyKind
	Message  string
	Err      error
}

func (e *StrategyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Strategy, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Strategy, e.Message)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// Is позволяет сравнивать ошибку с сентинелом её типа через errors.Is.
func (e *StrategyError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func classifyKind(err error) FailureKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTimeout):
		return FailureTimeout
	case errors.Is(err, ErrMissingFormField):
		return FailureMissingFormField
	case errors.Is(err, ErrValidationFailed):
		return FailureValidation
	case errors.Is(err, ErrTransport):
		return FailureTransport
	case errors.Is(err, ErrNotApplicable):
		return FailureNotApplicable
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return FailureTimeout
	}
	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "econnrefused") ||
		strings.Contains(errStr, "no such host") {
		return FailureTransport
	}

	return FailureUnexpected
}

func classify(strategy StrategyKind, message string, err error) *StrategyError {
	if err == nil {
		return nil
	}

	var se *StrategyError
	if errors.As(err, &se) {
		return se
	}

	return &StrategyError{
		Kind:     classifyKind(err),
		Strategy: strategy,
		Message:  message,
		Err:      err,
	}
}
