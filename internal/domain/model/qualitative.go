package model

// QualitativeStatus tags the outcome of the optional qualitative analysis.
type QualitativeStatus string

const (
	QualitativeSkipped   QualitativeStatus = "SKIPPED"
	QualitativeCompleted QualitativeStatus = "COMPLETED"
	QualitativeFailed    QualitativeStatus = "FAILED"
)

// QualitativeOutcome is a tagged result: Completed(text), Skipped, or
// Failed(reason). A failure is never represented as empty text.
type QualitativeOutcome struct {
	status QualitativeStatus
	text   string
	reason FailureReason
}

// SkippedAnalysis is the outcome when analysis was not requested or not wired.
func SkippedAnalysis() QualitativeOutcome {
	return QualitativeOutcome{status: QualitativeSkipped}
}

// CompletedAnalysis wraps the analyzer's text.
func CompletedAnalysis(text string) QualitativeOutcome {
	return QualitativeOutcome{status: QualitativeCompleted, text: text}
}

// FailedAnalysis records why the analyzer produced no text.
func FailedAnalysis(reason FailureReason) QualitativeOutcome {
	return QualitativeOutcome{status: QualitativeFailed, reason: reason}
}

func (q QualitativeOutcome) Status() QualitativeStatus { return q.status }
func (q QualitativeOutcome) Reason() FailureReason     { return q.reason }

// Text returns the analysis text and true only for a completed outcome.
func (q QualitativeOutcome) Text() (string, bool) {
	if q.status != QualitativeCompleted {
		return "", false
	}
	return q.text, true
}

// RestoreQualitative rebuilds an outcome from its persisted parts. Unknown
// statuses restore as skipped.
func RestoreQualitative(status QualitativeStatus, text string, reason FailureReason) QualitativeOutcome {
	switch status {
	case QualitativeCompleted:
		return CompletedAnalysis(text)
	case QualitativeFailed:
		return FailedAnalysis(reason)
	default:
		return SkippedAnalysis()
	}
}
