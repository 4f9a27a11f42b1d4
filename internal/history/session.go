// internal/history/session.go
package history

import (
	"smartstore-assistant/internal/common/errors"
	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/common/metrics"
	"smartstore-assistant/internal/models"
)

// BranchPasswordMinLen is the minimum length for a new branch password.
const BranchPasswordMinLen = 4

// Search is the per-session history search state machine. Scopes other
// than self move through unauthenticated -> authenticated; any change to
// scope, branch or name drops authentication, clears the entered
// password and resets pagination.
type Search struct {
	scope    Scope
	branch   string
	name     string
	password string

	authenticated bool
	page          int

	log logger.Logger
}

func NewSearch(log logger.Logger) *Search {
	return &Search{
		scope: ScopeSelf,
		page:  1,
		log:   log.WithFields(map[string]interface{}{"component": "history-search"}),
	}
}

func (s *Search) Scope() Scope         { return s.scope }
func (s *Search) Authenticated() bool  { return s.authenticated }
func (s *Search) CurrentPage() int     { return s.page }
func (s *Search) SelectedBranch() string { return s.branch }

// reset drops authentication state after a filter-changing action.
func (s *Search) reset() {
	s.authenticated = false
	s.password = ""
	s.page = 1
}

func (s *Search) SetScope(scope Scope) {
	if s.scope == scope {
		return
	}
	s.scope = scope
	s.reset()
}

func (s *Search) SetBranch(branch string) {
	if s.branch == branch {
		return
	}
	s.branch = branch
	s.reset()
}

func (s *Search) SetName(name string) {
	if s.name == name {
		return
	}
	s.name = name
	s.reset()
}

func (s *Search) SetPassword(password string) {
	s.password = password
}

// SetPage stores the requested page; Results clamps it against the
// current filtered set.
func (s *Search) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.page = page
}

// Authenticate runs the scope's authentication policy against the
// snapshot. Missing inputs produce a validation error before any
// credential is inspected; only wrong credentials produce an
// authentication error.
func (s *Search) Authenticate(snap models.Snapshot) error {
	switch s.scope {
	case ScopeSelf:
		// Identity continuity stands in for authentication.
		s.authenticated = true
		return nil

	case ScopeAll:
		if s.password == "" {
			return errors.NewValidationError("master password not entered")
		}
		if s.password != masterPassword {
			metrics.AuthFailures.WithLabelValues(string(ScopeAll)).Inc()
			s.log.Warn("master password rejected", nil)
			return errors.NewAuthenticationError("master password does not match")
		}
		s.authenticated = true
		return nil

	case ScopeBranch:
		if s.branch == "" {
			return errors.NewValidationError("branch not selected")
		}
		if s.password == "" {
			return errors.NewValidationError("password not entered")
		}
		registered, ok := lookupBranchPassword(snap.BranchAuth, s.branch)
		if !ok || registered == "" {
			// Not a rejection: the branch needs a password registered
			// before branch-scoped access can succeed.
			return errors.NewRegistrationRequiredError(s.branch)
		}
		if registered != s.password {
			metrics.AuthFailures.WithLabelValues(string(ScopeBranch)).Inc()
			s.log.Warn("branch password rejected", map[string]interface{}{"branch": s.branch})
			return errors.NewAuthenticationError("branch password does not match")
		}
		s.authenticated = true
		return nil

	case ScopePerson:
		if s.branch == "" {
			return errors.NewValidationError("branch not selected")
		}
		if s.name == "" {
			return errors.NewValidationError("salesperson name not entered")
		}
		if s.password == "" {
			return errors.NewValidationError("password not entered")
		}
		// No roster pre-check: the filter itself authenticates, a wrong
		// password yields zero rows.
		s.authenticated = true
		return nil
	}

	return errors.NewValidationError("unknown search scope")
}

// Results computes the current page of the filtered history. Admin scopes
// return an empty page until authenticated. The self scope additionally
// searches local, the device-local records: a submission whose remote
// post failed must stay visible to its owner.
func (s *Search) Results(snap models.Snapshot, identity models.Identity, local []models.ApplicationRecord) Page {
	metrics.HistorySearches.WithLabelValues(string(s.scope)).Inc()

	var filtered []models.ApplicationRecord
	switch s.scope {
	case ScopeSelf:
		filtered = FilterSelf(mergeByID(snap.History, local), identity)
	case ScopeBranch:
		if s.authenticated {
			filtered = FilterBranch(snap.History, s.branch)
		}
	case ScopePerson:
		if s.authenticated {
			filtered = FilterPerson(snap.History, s.branch, s.name, s.password)
		}
	case ScopeAll:
		if s.authenticated {
			filtered = FilterAll(snap.History)
		}
	}

	page := Paginate(filtered, s.page)
	s.page = page.Current
	return page
}

// ValidateNewBranchPassword rejects too-short passwords before any
// registration request is sent.
func ValidateNewBranchPassword(password string) error {
	if len([]rune(password)) < BranchPasswordMinLen {
		return errors.NewPasswordTooShortError(BranchPasswordMinLen)
	}
	return nil
}

// mergeByID appends the local records the remote history does not carry
// yet. Remote rows win on id collision; they already round-tripped.
func mergeByID(remote, local []models.ApplicationRecord) []models.ApplicationRecord {
	if len(local) == 0 {
		return remote
	}
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		seen[r.ID] = true
	}
	merged := make([]models.ApplicationRecord, 0, len(remote)+len(local))
	merged = append(merged, remote...)
	for _, r := range local {
		if !seen[r.ID] {
			merged = append(merged, r)
		}
	}
	return merged
}

func lookupBranchPassword(auth []models.BranchAuth, branchName string) (string, bool) {
	for _, a := range auth {
		if a.BranchName == branchName {
			return a.Password, true
		}
	}
	return "", false
}
