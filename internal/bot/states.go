package bot

import "time"

const (
	StepLangSelect       = "lang_select"
	StepMenu             = "menu"
	StepReady            = "ready"
	StepWaitIdentity     = "wait_identity"
	StepWaitBadge        = "wait_badge"
	StepWaitEvidence     = "wait_evidence"
	StepAwaitingDecision = "awaiting_decision"
)

// EvidenceRequired is how many distinct photos a request must carry.
const EvidenceRequired = 3

type UserState struct {
	Step            string
	Language        string
	FIO             string
	BadgeNumber     string
	Evidence        [][]byte
	ActiveRequestID string
	LastRequestID   string
	SubmittedAt     time.Time
	SLANotified     bool
}

// ResetToMenu clears all wizard fields, keeping the chosen language and the
// id of the last submitted request so the menu's status lookup still works
// after the decision. Used when a request reaches a terminal decision or the
// user cancels.
func (s *UserState) ResetToMenu() {
	lang := s.Language
	last := s.LastRequestID
	*s = UserState{Step: StepMenu, Language: lang, LastRequestID: last}
}
