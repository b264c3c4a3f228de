package hermes

const (
	StreamName   = "CHOICEASE_EVENTS"
	StreamMaxAge = "720h" // 30 days

	subjectRoot = "choicease."
)

// StreamSubjects are captured by the JetStream stream.
var StreamSubjects = []string{"choicease.decision.>", "choicease.whatif.>"}

func SubjectDecisionSaved(decisionID string) string {
	return subjectRoot + "decision." + decisionID + ".saved"
}

func SubjectDecisionDeleted(decisionID string) string {
	return subjectRoot + "decision." + decisionID + ".deleted"
}

func SubjectDecisionAnalyzed(decisionID string) string {
	return subjectRoot + "decision." + decisionID + ".analyzed"
}

func SubjectWhatIfOpened(sessionID string) string {
	return subjectRoot + "whatif." + sessionID + ".opened"
}

func SubjectWhatIfWinnerChanged(sessionID string) string {
	return subjectRoot + "whatif." + sessionID + ".winner_changed"
}
