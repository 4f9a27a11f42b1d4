// internal/verify/state.go
package verify

// Status is the verification state attached to the in-progress form.
type Status string

const (
	StatusUnverified   Status = "unverified"
	StatusVerified     Status = "verified"
	StatusNewConfirmed Status = "new_confirmed"
)

// criticalFields are the form fields whose edits invalidate a previous
// verification. Phone edits do not: the roster match already pinned the
// phone, and the original flow keeps verification across phone reformat.
var criticalFields = map[string]bool{
	"branchName":    true,
	"branchRep":     true,
	"salesPassword": true,
}

// State is the explicit tri-state machine for the in-progress form.
// Transitions: MarkVerified and ConfirmNew move out of Unverified; any
// critical-field edit moves back to Unverified from any state.
type State struct {
	status Status
}

func NewState() *State {
	return &State{status: StatusUnverified}
}

func (s *State) Status() Status {
	if s.status == "" {
		return StatusUnverified
	}
	return s.status
}

// MarkVerified records a successful roster verification.
func (s *State) MarkVerified() {
	s.status = StatusVerified
}

// ConfirmNew records the user's explicit confirmation that they are a new
// salesperson after an Unknown outcome.
func (s *State) ConfirmNew() {
	s.status = StatusNewConfirmed
}

// Invalidate forces the state back to Unverified.
func (s *State) Invalidate() {
	s.status = StatusUnverified
}

// NoteEdit invalidates the state when a critical form field changed.
func (s *State) NoteEdit(field string) {
	if criticalFields[field] {
		s.status = StatusUnverified
	}
}

// CanSubmit reports whether submission may proceed at all.
func (s *State) CanSubmit() bool {
	return s.Status() != StatusUnverified
}

// IsNewSalesperson reports whether the outgoing record must be tagged as
// a new-salesperson registration.
func (s *State) IsNewSalesperson() bool {
	return s.Status() == StatusNewConfirmed
}
