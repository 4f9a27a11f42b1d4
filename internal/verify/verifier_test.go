// internal/verify/verifier_test.go
package verify

import (
	"testing"

	"smartstore-assistant/internal/models"

	"github.com/stretchr/testify/assert"
)

func testRoster() []models.Salesperson {
	return []models.Salesperson{
		{BranchName: "서울지부", Name: "김판매", Phone: "010-1234-5678", Password: "pass1"},
		{BranchName: "부산지부", Name: "이영업", Phone: "01099998888", Password: "pass2"},
	}
}

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "dashed phone", input: "010-1234-5678", expected: "01012345678"},
		{name: "spaces and dots", input: "010 1234.5678", expected: "01012345678"},
		{name: "already bare", input: "01012345678", expected: "01012345678"},
		{name: "empty", input: "", expected: ""},
		{name: "no digits at all", input: "abc-def", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDigits(tt.input))
		})
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name     string
		claim    Claim
		expected Outcome
	}{
		{
			name:     "exact match",
			claim:    Claim{BranchName: "서울지부", Name: "김판매", Phone: "010-1234-5678", Password: "pass1"},
			expected: OutcomeVerified,
		},
		{
			name:     "phone formatting differs but digits match",
			claim:    Claim{BranchName: "부산지부", Name: "이영업", Phone: "010-9999-8888", Password: "pass2"},
			expected: OutcomeVerified,
		},
		{
			name:     "wrong password on a roster match",
			claim:    Claim{BranchName: "서울지부", Name: "김판매", Phone: "01012345678", Password: "wrong"},
			expected: OutcomePasswordMismatch,
		},
		{
			name:     "unknown name",
			claim:    Claim{BranchName: "서울지부", Name: "박신입", Phone: "010-1111-2222", Password: "x"},
			expected: OutcomeUnknown,
		},
		{
			name:     "right name wrong branch",
			claim:    Claim{BranchName: "부산지부", Name: "김판매", Phone: "010-1234-5678", Password: "pass1"},
			expected: OutcomeUnknown,
		},
		{
			name:     "phone digits differ",
			claim:    Claim{BranchName: "서울지부", Name: "김판매", Phone: "010-1234-0000", Password: "pass1"},
			expected: OutcomeUnknown,
		},
		{
			name:     "empty roster",
			claim:    Claim{BranchName: "서울지부", Name: "김판매", Phone: "010-1234-5678", Password: "pass1"},
			expected: OutcomeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster := testRoster()
			if tt.name == "empty roster" {
				roster = nil
			}
			assert.Equal(t, tt.expected, Verify(tt.claim, roster))
		})
	}
}

func TestState_Transitions(t *testing.T) {
	s := NewState()
	assert.Equal(t, StatusUnverified, s.Status())
	assert.False(t, s.CanSubmit())

	s.MarkVerified()
	assert.Equal(t, StatusVerified, s.Status())
	assert.True(t, s.CanSubmit())
	assert.False(t, s.IsNewSalesperson())

	s.ConfirmNew()
	assert.Equal(t, StatusNewConfirmed, s.Status())
	assert.True(t, s.CanSubmit())
	assert.True(t, s.IsNewSalesperson())

	s.Invalidate()
	assert.Equal(t, StatusUnverified, s.Status())
}

func TestState_NoteEdit(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		invalidate bool
	}{
		{name: "branch edit invalidates", field: "branchName", invalidate: true},
		{name: "rep edit invalidates", field: "branchRep", invalidate: true},
		{name: "password edit invalidates", field: "salesPassword", invalidate: true},
		{name: "phone edit keeps verification", field: "branchPhone", invalidate: false},
		{name: "business field keeps verification", field: "businessName", invalidate: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			s.MarkVerified()
			s.NoteEdit(tt.field)
			if tt.invalidate {
				assert.Equal(t, StatusUnverified, s.Status())
			} else {
				assert.Equal(t, StatusVerified, s.Status())
			}
		})
	}
}
