// internal/history/filter.go
package history

import (
	"smartstore-assistant/internal/models"
	"smartstore-assistant/internal/verify"
)

// Scope is the access tier used to filter history.
type Scope string

const (
	ScopeSelf   Scope = "self"
	ScopeBranch Scope = "branch"
	ScopePerson Scope = "person"
	ScopeAll    Scope = "all"
)

// PageSize is the fixed number of records per result page.
const PageSize = 10

// masterPassword gates the global scope. A fixed shared secret compared
// by exact equality, not configurable at runtime.
const masterPassword = "qwer1234"

// FilterSelf returns the records belonging to the given identity: exact
// branch and rep equality plus digit-normalized phone equality. An
// incomplete identity selects nothing; identity continuity from a prior
// verification stands in for authentication.
func FilterSelf(history []models.ApplicationRecord, id models.Identity) []models.ApplicationRecord {
	if !id.Complete() {
		return nil
	}
	phone := verify.NormalizeDigits(id.Phone)
	var out []models.ApplicationRecord
	for _, r := range history {
		if r.BranchName == id.BranchName &&
			r.BranchRep == id.Name &&
			verify.NormalizeDigits(r.BranchPhone) == phone {
			out = append(out, r)
		}
	}
	return out
}

// FilterBranch returns every record of one branch. Callers must have
// authenticated the branch password first.
func FilterBranch(history []models.ApplicationRecord, branchName string) []models.ApplicationRecord {
	var out []models.ApplicationRecord
	for _, r := range history {
		if r.BranchName == branchName {
			out = append(out, r)
		}
	}
	return out
}

// FilterPerson authenticates at the filter itself: a record is included
// iff its (branchName, branchRep, salesPassword) triple equals the query.
// A wrong password therefore yields zero rows rather than an explicit
// authentication error; the empty result is the rejection signal.
func FilterPerson(history []models.ApplicationRecord, branchName, name, password string) []models.ApplicationRecord {
	var out []models.ApplicationRecord
	for _, r := range history {
		if r.BranchName == branchName &&
			r.BranchRep == name &&
			r.SalesPassword == password {
			out = append(out, r)
		}
	}
	return out
}

// FilterAll returns every record with both a branch and a business name,
// dropping corrupt or partial rows.
func FilterAll(history []models.ApplicationRecord) []models.ApplicationRecord {
	var out []models.ApplicationRecord
	for _, r := range history {
		if r.BranchName != "" && r.BusinessName != "" {
			out = append(out, r)
		}
	}
	return out
}

// Page is one page of filtered history.
type Page struct {
	Records    []models.ApplicationRecord `json:"records"`
	Total      int                        `json:"total"`
	TotalPages int                        `json:"totalPages"`
	Current    int                        `json:"currentPage"`
}

// Paginate slices records into the requested page. totalPages is at least
// 1 even for an empty set; the requested page is clamped into
// [1, totalPages].
func Paginate(records []models.ApplicationRecord, page int) Page {
	totalPages := (len(records) + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > len(records) {
		start = len(records)
	}
	if end > len(records) {
		end = len(records)
	}

	return Page{
		Records:    records[start:end],
		Total:      len(records),
		TotalPages: totalPages,
		Current:    page,
	}
}
