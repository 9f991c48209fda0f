package acquire

import "fmt"

type StrategyKind int

const (
	StrategyDirectReplay StrategyKind = iota
	StrategyNativeDownload
	StrategyViewer
	StrategyResourceFetch
	StrategyHTTPReplication
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyDirectReplay:
		return "direct_replay"
	case StrategyNativeDownload:
		return "native_download"
	case StrategyViewer:
		return "viewer_interaction"
	case StrategyResourceFetch:
		return "resource_fetch"
	case StrategyHTTPReplication:
		return "http_replication"
	default:
		return fmt.Sprintf("strategy(%d)", int(k))
	}
}

type OutcomeStatus int

const (
	OutcomeSuccess OutcomeStatus = iota
	OutcomeNotApplicable
	OutcomeFailed
)

func (s OutcomeStatus) String() string {
	switch s {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotApplicable:
		return "not_applicable"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome результат одной стратегии. Data и ContentType заполнены только
// при OutcomeSuccess, Err только в остальных случаях.
type Outcome struct {
	Status      OutcomeStatus
	Data        []byte
	ContentType string
	Err         *StrategyError
}

func (o Outcome) Len() int {
	return len(o.Data)
}

func Success(data []byte, contentType string) Outcome {
	return Outcome{Status: OutcomeSuccess, Data: data, ContentType: contentType}
}

func NotApplicable(strategy StrategyKind, message string, cause error) Outcome {
	kind := FailureNotApplicable
	if cause != nil && classifyKind(cause) == FailureMissingFormField {
		kind = FailureMissingFormField
	}
	return Outcome{
		Status: OutcomeNotApplicable,
		Err:    &StrategyError{Kind: kind, Strategy: strategy, Message: message, Err: cause},
	}
}

func Failed(strategy StrategyKind, message string, err error) Outcome {
	if err == nil {
		err = ErrUnexpected
	}
	return Outcome{Status: OutcomeFailed, Err: classify(strategy, message, err)}
}
