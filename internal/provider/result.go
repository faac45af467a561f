package provider

// Outcome classifies the result of a lifecycle verb.
type Outcome int

// Possible outcomes of a lifecycle verb.
const (
	OutcomePerformed Outcome = iota
	OutcomeDryRun
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePerformed:
		return "performed"
	case OutcomeDryRun:
		return "dry_run"
	default:
		return "failed"
	}
}

// Result is returned by every lifecycle verb. Exactly one of the three
// outcomes applies: the provider performed the request, validated it
// without executing it (dry run), or failed with a classified error.
type Result struct {
	Outcome Outcome
	// Notice is the provider's message for a dry run.
	Notice string
	// Err is set only when Outcome is OutcomeFailed.
	Err error
}

// Performed returns a successful Result.
func Performed() Result {
	return Result{Outcome: OutcomePerformed}
}

// DryRun returns a Result for a validated but unexecuted request.
func DryRun(notice string) Result {
	if notice == "" {
		notice = "Request would have succeeded, but the dry-run flag is set"
	}
	return Result{Outcome: OutcomeDryRun, Notice: notice}
}

// Failed returns a failed Result. Unclassified errors become KindInstance.
func Failed(err error) Result {
	if _, ok := KindOf(err); !ok {
		err = Wrap(KindInstance, err, "provider request failed")
	}
	return Result{Outcome: OutcomeFailed, Err: err}
}
