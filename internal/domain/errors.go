package domain

import "errors"

type ErrorKind string

const (
	KindNoData                   ErrorKind = "no_data"
	KindNoSourceData             ErrorKind = "no_source_data"
	KindInvalidReference         ErrorKind = "invalid_reference"
	KindPartialSourceFailure     ErrorKind = "partial_source_failure"
	KindMalformedRecord          ErrorKind = "malformed_record"
	KindSummarizationUnavailable ErrorKind = "summarization_unavailable"
)

// Error carries one of the closed ErrorKind values. errors.Is matches on kind,
// so a wrapped NoData("...") still satisfies errors.Is(err, ErrNoData).
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNoData                   = &Error{Kind: KindNoData}
	ErrNoSourceData             = &Error{Kind: KindNoSourceData}
	ErrInvalidReference         = &Error{Kind: KindInvalidReference}
	ErrPartialSourceFailure     = &Error{Kind: KindPartialSourceFailure}
	ErrMalformedRecord          = &Error{Kind: KindMalformedRecord}
	ErrSummarizationUnavailable = &Error{Kind: KindSummarizationUnavailable}
)

func NoData(msg string) error { return &Error{Kind: KindNoData, Msg: msg} }

func InvalidReference(msg string) error { return &Error{Kind: KindInvalidReference, Msg: msg} }

func NoSourceData(msg string, err error) error {
	return &Error{Kind: KindNoSourceData, Msg: msg, Err: err}
}

func SummarizationUnavailable(err error) error {
	return &Error{Kind: KindSummarizationUnavailable, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
