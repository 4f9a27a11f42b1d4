// internal/verify/verifier.go
package verify

import (
	"strings"

	"smartstore-assistant/internal/models"
)

// Outcome is the result of checking a claimed identity against the
// salesperson roster.
type Outcome string

const (
	// OutcomeVerified: roster match on branch, name and phone, and the
	// password matched exactly.
	OutcomeVerified Outcome = "verified"
	// OutcomePasswordMismatch: roster match but the password differs.
	OutcomePasswordMismatch Outcome = "password_mismatch"
	// OutcomeUnknown: no roster entry matches the identity triple. The
	// caller must obtain explicit user confirmation before treating the
	// claim as a new registration.
	OutcomeUnknown Outcome = "unknown"
)

// Claim is the identity a salesperson enters on the application form.
type Claim struct {
	BranchName string `json:"branchName"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
}

// NormalizeDigits strips every non-digit rune. All phone comparisons go
// through this so formatting dashes and spaces never affect identity.
func NormalizeDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Verify is a pure function of (claim, roster). A roster entry matches on
// exact branch and name equality plus digit-normalized phone equality;
// the password is then compared by exact string equality.
func Verify(claim Claim, roster []models.Salesperson) Outcome {
	claimPhone := NormalizeDigits(claim.Phone)
	for _, member := range roster {
		if member.BranchName != claim.BranchName || member.Name != claim.Name {
			continue
		}
		if NormalizeDigits(member.Phone) != claimPhone {
			continue
		}
		if member.Password == claim.Password {
			return OutcomeVerified
		}
		return OutcomePasswordMismatch
	}
	return OutcomeUnknown
}
