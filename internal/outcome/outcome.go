// Package outcome is the three-way result of processing one work item.
package outcome

import "fmt"

type Kind int

const (
	KindSuccess Kind = iota
	KindSkip
	KindFail
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindSkip:
		return "skipped"
	case KindFail:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is Success, Skip with a reason, or Fail with an error. A Skip is
// an expected early stop (nothing to download) and is never retried.
type Outcome struct {
	Kind   Kind
	Reason string
	Err    error
}

func Success() Outcome { return Outcome{Kind: KindSuccess} }

func Skip(reason string) Outcome { return Outcome{Kind: KindSkip, Reason: reason} }

func Skipf(format string, args ...any) Outcome { return Skip(fmt.Sprintf(format, args...)) }

// Fail wraps err; a nil err still yields a failure.
func Fail(err error) Outcome {
	if err == nil {
		err = fmt.Errorf("unspecified failure")
	}
	return Outcome{Kind: KindFail, Err: err}
}

func Failf(format string, args ...any) Outcome { return Fail(fmt.Errorf(format, args...)) }

func (o Outcome) IsSuccess() bool { return o.Kind == KindSuccess }
func (o Outcome) IsSkip() bool    { return o.Kind == KindSkip }
func (o Outcome) IsFail() bool    { return o.Kind == KindFail }

func (o Outcome) String() string {
	switch o.Kind {
	case KindSkip:
		return "skipped: " + o.Reason
	case KindFail:
		return "failed: " + o.Err.Error()
	default:
		return o.Kind.String()
	}
}
