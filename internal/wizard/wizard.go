// Package wizard drives one user's pass through the application
// assistant: guidance, document checklist, the application form with
// identity verification, and the history search. A Session is the unit
// of state the HTTP layer binds to a session id.
package wizard

import (
	"context"
	"sync"
	"time"

	"smartstore-assistant/internal/checklist"
	"smartstore-assistant/internal/common/config"
	"smartstore-assistant/internal/common/errors"
	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/common/validation"
	"smartstore-assistant/internal/gateway"
	"smartstore-assistant/internal/history"
	"smartstore-assistant/internal/models"
	"smartstore-assistant/internal/store"
	"smartstore-assistant/internal/verify"
)

// Step is one of the four assistant tabs.
type Step string

const (
	StepGuide     Step = "guide"
	StepChecklist Step = "checklist"
	StepApply     Step = "apply"
	StepHistory   Step = "history"
)

// FormData is the in-progress application form.
type FormData struct {
	BranchName    string `json:"branchName"`
	BranchRep     string `json:"branchRep"`
	SalesPassword string `json:"salesPassword"`
	BranchPhone   string `json:"branchPhone"`
	BusinessName  string `json:"businessName"`
	RepName       string `json:"repName"`
	PhoneNumber   string `json:"phoneNumber"`
	Address       string `json:"address"`
	StoreID       string `json:"storeId"`
	StorePW       string `json:"storePw"`
}

// Session holds all per-user assistant state. All methods are safe for
// concurrent use; the HTTP layer may serve one session from several
// requests at once.
type Session struct {
	mu sync.Mutex

	step      Step
	form      FormData
	vstate    *verify.State
	checklist *checklist.List
	search    *history.Search

	store *store.Store
	gw    *gateway.Gateway
	log   logger.Logger

	refreshDelay time.Duration
	submitLatch  time.Duration
	latchedUntil time.Time
	now          func() time.Time
}

// NewSession restores checklist state from the local store when present.
func NewSession(st *store.Store, gw *gateway.Gateway, syncCfg config.SyncConfig, log logger.Logger) *Session {
	items, err := st.Checklist()
	if err != nil {
		log.WithError(err).Warn("checklist restore failed, starting fresh", nil)
		items = nil
	}
	return &Session{
		step:         StepGuide,
		vstate:       verify.NewState(),
		checklist:    checklist.New(items),
		search:       history.NewSearch(log),
		store:        st,
		gw:           gw,
		log:          log.WithFields(map[string]interface{}{"component": "wizard"}),
		refreshDelay: syncCfg.RefreshDelayDuration(),
		submitLatch:  syncCfg.SubmitLatchDuration(),
		now:          time.Now,
	}
}

func (s *Session) Step() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// GoTo switches tabs. Entering the form requires a complete checklist;
// entering the guide performs a full restart; entering history kicks off
// an immediate background snapshot refresh so results are current.
func (s *Session) GoTo(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch step {
	case StepGuide:
		return s.restartLocked()
	case StepChecklist:
		s.step = StepChecklist
		return nil
	case StepApply:
		if !s.checklist.IsComplete() {
			return errors.NewChecklistIncompleteError()
		}
		s.step = StepApply
		return nil
	case StepHistory:
		s.step = StepHistory
		s.gw.ScheduleRefresh(0)
		return nil
	}
	return errors.NewValidationError("unknown step")
}

// Restart wipes the form, checklist, verification and search state, and
// clears the local store.
func (s *Session) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartLocked()
}

func (s *Session) restartLocked() error {
	s.step = StepGuide
	s.form = FormData{}
	s.vstate = verify.NewState()
	s.checklist.Reset()
	s.search = history.NewSearch(s.log)
	if err := s.store.Reset(); err != nil {
		return errors.NewStorageError(err)
	}
	return nil
}

// ChecklistItems returns the current checklist state.
func (s *Session) ChecklistItems() []models.ChecklistItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checklist.Items()
}

// ToggleChecklist flips one item and persists the whole list. An unknown
// id is reported, not an error.
func (s *Session) ToggleChecklist(id string) ([]models.ChecklistItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := s.checklist.Toggle(id)
	if known {
		if err := s.store.SaveChecklist(s.checklist.Items()); err != nil {
			s.log.WithError(err).Warn("checklist persist failed", nil)
		}
	}
	return s.checklist.Items(), known
}

func (s *Session) ChecklistComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checklist.IsComplete()
}

// Form returns a copy of the in-progress form.
func (s *Session) Form() FormData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) VerificationStatus() verify.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vstate.Status()
}

// SetField writes one form field and returns the stored value. Phone
// fields are reformatted to the 3-4-4 dashed shape as they are typed.
// Edits to identity-critical fields drop any previous verification.
func (s *Session) SetField(field, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if field == "branchPhone" || field == "phoneNumber" {
		value = FormatPhone(value)
	}

	switch field {
	case "branchName":
		s.form.BranchName = value
	case "branchRep":
		s.form.BranchRep = value
	case "salesPassword":
		s.form.SalesPassword = value
	case "branchPhone":
		s.form.BranchPhone = value
	case "businessName":
		s.form.BusinessName = value
	case "repName":
		s.form.RepName = value
	case "phoneNumber":
		s.form.PhoneNumber = value
	case "address":
		s.form.Address = value
	case "storeId":
		s.form.StoreID = value
	case "storePw":
		s.form.StorePW = value
	default:
		return "", errors.NewValidationError("unknown form field: " + field)
	}

	s.vstate.NoteEdit(field)
	return value, nil
}

// FormatPhone renders up to 11 digits as 3-4-4 with dashes, e.g.
// "01012345678" becomes "010-1234-5678". Excess digits are dropped.
func FormatPhone(s string) string {
	digits := verify.NormalizeDigits(s)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 7:
		return digits[:3] + "-" + digits[3:]
	default:
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:]
	}
}

// VerifyIdentity checks the form's salesperson identity against the
// roster. An Unknown outcome is not an error: the caller must ask the
// user to confirm they are new before submission can proceed.
func (s *Session) VerifyIdentity() (verify.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Phone is deliberately not required here: a blank phone simply
	// fails the roster match and lands on the Unknown path.
	check := validation.NewCheck().
		Required("branchName", s.form.BranchName).
		Required("branchRep", s.form.BranchRep).
		Required("salesPassword", s.form.SalesPassword)
	if !check.Valid() {
		return "", errors.NewValidationError("missing field: " + check.FirstField())
	}

	claim := verify.Claim{
		BranchName: s.form.BranchName,
		Name:       s.form.BranchRep,
		Phone:      s.form.BranchPhone,
		Password:   s.form.SalesPassword,
	}
	outcome := verify.Verify(claim, s.gw.Snapshot().Salespersons)

	switch outcome {
	case verify.OutcomeVerified:
		s.vstate.MarkVerified()
		s.log.Info("salesperson verified", map[string]interface{}{"branch": claim.BranchName})
	case verify.OutcomePasswordMismatch:
		s.vstate.Invalidate()
		return outcome, errors.NewAuthenticationError("salesperson password does not match")
	case verify.OutcomeUnknown:
		s.vstate.Invalidate()
	}
	return outcome, nil
}

// ConfirmNewSalesperson records the user's explicit answer after an
// Unknown verification outcome.
func (s *Session) ConfirmNewSalesperson() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vstate.ConfirmNew()
}

// Submit finalizes the application. The record is stamped, posted to the
// remote best-effort, and always persisted locally; the local write does
// not depend on the remote call succeeding. Re-entry within the latch
// window is rejected so a double-click cannot produce two records.
func (s *Session) Submit(ctx context.Context) (models.ApplicationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.now().Before(s.latchedUntil) {
		return models.ApplicationRecord{}, errors.NewSubmitInFlightError()
	}

	if !s.checklist.IsComplete() {
		return models.ApplicationRecord{}, errors.NewChecklistIncompleteError()
	}
	if !s.vstate.CanSubmit() {
		return models.ApplicationRecord{}, errors.NewIdentityUnverifiedError()
	}

	check := validation.NewCheck().
		Required("branchName", s.form.BranchName).
		Required("branchRep", s.form.BranchRep).
		Required("salesPassword", s.form.SalesPassword).
		Required("branchPhone", s.form.BranchPhone).
		Required("businessName", s.form.BusinessName).
		Required("repName", s.form.RepName).
		Required("phoneNumber", s.form.PhoneNumber).
		Required("address", s.form.Address)
	if !check.Valid() {
		return models.ApplicationRecord{}, errors.NewValidationError("missing field: " + check.FirstField())
	}

	// Armed only once a real submission starts: a rejected attempt must
	// not block the corrected retry.
	s.latchedUntil = s.now().Add(s.submitLatch)

	record := s.store.StampRecord(models.ApplicationRecord{
		BranchName:    s.form.BranchName,
		BranchRep:     s.form.BranchRep,
		SalesPassword: s.form.SalesPassword,
		BranchPhone:   s.form.BranchPhone,
		BusinessName:  s.form.BusinessName,
		RepName:       s.form.RepName,
		PhoneNumber:   s.form.PhoneNumber,
		Address:       s.form.Address,
		StoreID:       s.form.StoreID,
		StorePW:       s.form.StorePW,
	})
	isNew := s.vstate.IsNewSalesperson()

	if err := s.gw.SubmitRecord(ctx, record, isNew); err != nil {
		s.log.WithError(err).Warn("remote submit failed, record kept locally", map[string]interface{}{"recordId": record.ID})
	}

	if err := s.store.AppendRecord(record); err != nil {
		return models.ApplicationRecord{}, errors.NewStorageError(err)
	}
	identity := models.Identity{
		BranchName: record.BranchName,
		Name:       record.BranchRep,
		Phone:      record.BranchPhone,
	}
	if err := s.store.SaveLastIdentity(identity); err != nil {
		s.log.WithError(err).Warn("identity persist failed", nil)
	}

	s.gw.ScheduleRefresh(s.refreshDelay)

	s.form = FormData{}
	s.vstate = verify.NewState()
	s.log.Info("application submitted", map[string]interface{}{
		"recordId":         record.ID,
		"isNewSalesperson": isNew,
	})
	return record, nil
}

// SetSearchScope, SetSearchBranch, SetSearchName, SetSearchPassword and
// SetSearchPage feed the history search state machine.
func (s *Session) SetSearchScope(scope history.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.SetScope(scope)
}

func (s *Session) SetSearchBranch(branch string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.SetBranch(branch)
}

func (s *Session) SetSearchName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.SetName(name)
}

func (s *Session) SetSearchPassword(password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.SetPassword(password)
}

func (s *Session) SetSearchPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.SetPage(page)
}

// AuthenticateSearch runs the selected scope's authentication policy
// against the current snapshot.
func (s *Session) AuthenticateSearch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search.Authenticate(s.gw.Snapshot())
}

// SearchResults returns the current page of filtered history. Local
// records feed the self scope so a submission stays visible to its owner
// even when the remote post failed.
func (s *Session) SearchResults() history.Page {
	s.mu.Lock()
	defer s.mu.Unlock()

	local, err := s.store.Records()
	if err != nil {
		s.log.WithError(err).Warn("local records read failed", nil)
	}
	return s.search.Results(s.gw.Snapshot(), s.currentIdentityLocked(), local)
}

// currentIdentityLocked assembles the identity used by the self scope:
// the in-progress form first, the last submitted identity as a per-field
// fallback.
func (s *Session) currentIdentityLocked() models.Identity {
	id := models.Identity{
		BranchName: s.form.BranchName,
		Name:       s.form.BranchRep,
		Phone:      s.form.BranchPhone,
	}
	last, err := s.store.LastIdentity()
	if err != nil {
		s.log.WithError(err).Warn("last identity read failed", nil)
		return id
	}
	if id.BranchName == "" {
		id.BranchName = last.BranchName
	}
	if id.Name == "" {
		id.Name = last.Name
	}
	if id.Phone == "" {
		id.Phone = last.Phone
	}
	return id
}

// RegisterBranchPassword validates and sends a branch password
// registration for the branch selected in the search. Registration never
// authenticates the current session; the user re-enters the password once
// the next snapshot carries it.
func (s *Session) RegisterBranchPassword(ctx context.Context, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	branch := s.search.SelectedBranch()
	if branch == "" {
		return errors.NewValidationError("branch not selected")
	}
	if err := history.ValidateNewBranchPassword(password); err != nil {
		return err
	}
	return s.gw.RegisterBranchPassword(ctx, branch, password)
}
