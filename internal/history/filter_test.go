// internal/history/filter_test.go
package history

import (
	"fmt"
	"testing"

	"smartstore-assistant/internal/models"

	"github.com/stretchr/testify/assert"
)

func testHistory() []models.ApplicationRecord {
	return []models.ApplicationRecord{
		{ID: "1", BranchName: "서울지부", BranchRep: "김판매", SalesPassword: "1234", BranchPhone: "010-1234-5678", BusinessName: "한빛상회"},
		{ID: "2", BranchName: "서울지부", BranchRep: "김판매", SalesPassword: "1234", BranchPhone: "01012345678", BusinessName: "두리식당"},
		{ID: "3", BranchName: "서울지부", BranchRep: "이영업", SalesPassword: "5678", BranchPhone: "010-2222-3333", BusinessName: "세모상점"},
		{ID: "4", BranchName: "부산지부", BranchRep: "박차장", SalesPassword: "9999", BranchPhone: "010-4444-5555", BusinessName: "네모마트"},
		{ID: "5", BranchName: "", BranchRep: "유실", SalesPassword: "", BranchPhone: "", BusinessName: "고아상점"},
		{ID: "6", BranchName: "부산지부", BranchRep: "박차장", SalesPassword: "9999", BranchPhone: "010-4444-5555", BusinessName: ""},
	}
}

func TestFilterSelf(t *testing.T) {
	tests := []struct {
		name        string
		identity    models.Identity
		expectedIDs []string
	}{
		{
			name:        "matches across phone formatting",
			identity:    models.Identity{BranchName: "서울지부", Name: "김판매", Phone: "010-1234-5678"},
			expectedIDs: []string{"1", "2"},
		},
		{
			name:        "bare digits in identity",
			identity:    models.Identity{BranchName: "서울지부", Name: "김판매", Phone: "01012345678"},
			expectedIDs: []string{"1", "2"},
		},
		{
			name:        "incomplete identity selects nothing",
			identity:    models.Identity{BranchName: "서울지부"},
			expectedIDs: nil,
		},
		{
			name:        "wrong phone selects nothing",
			identity:    models.Identity{BranchName: "서울지부", Name: "김판매", Phone: "010-0000-0000"},
			expectedIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterSelf(testHistory(), tt.identity)
			assert.Equal(t, tt.expectedIDs, recordIDs(got))
		})
	}
}

func TestFilterBranch(t *testing.T) {
	got := FilterBranch(testHistory(), "서울지부")
	assert.Equal(t, []string{"1", "2", "3"}, recordIDs(got))

	assert.Nil(t, FilterBranch(testHistory(), "대전지부"))
}

func TestFilterPerson(t *testing.T) {
	tests := []struct {
		name        string
		branch      string
		person      string
		password    string
		expectedIDs []string
	}{
		{
			name:        "correct triple",
			branch:      "서울지부",
			person:      "김판매",
			password:    "1234",
			expectedIDs: []string{"1", "2"},
		},
		{
			// The wrong password is indistinguishable from no records:
			// person scope authenticates at the filter.
			name:        "wrong password yields empty, not an error",
			branch:      "서울지부",
			person:      "김판매",
			password:    "0000",
			expectedIDs: nil,
		},
		{
			name:        "unknown person",
			branch:      "서울지부",
			person:      "최없음",
			password:    "1234",
			expectedIDs: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterPerson(testHistory(), tt.branch, tt.person, tt.password)
			assert.Equal(t, tt.expectedIDs, recordIDs(got))
		})
	}
}

func TestFilterAll_DropsPartialRows(t *testing.T) {
	got := FilterAll(testHistory())
	assert.Equal(t, []string{"1", "2", "3", "4"}, recordIDs(got))
}

func TestPaginate(t *testing.T) {
	records := make([]models.ApplicationRecord, 23)
	for i := range records {
		records[i].ID = fmt.Sprintf("r%d", i)
	}

	tests := []struct {
		name          string
		page          int
		expectedPage  int
		expectedCount int
	}{
		{name: "first page full", page: 1, expectedPage: 1, expectedCount: 10},
		{name: "second page full", page: 2, expectedPage: 2, expectedCount: 10},
		{name: "last page partial", page: 3, expectedPage: 3, expectedCount: 3},
		{name: "beyond the end clamps to last", page: 99, expectedPage: 3, expectedCount: 3},
		{name: "zero clamps to first", page: 0, expectedPage: 1, expectedCount: 10},
		{name: "negative clamps to first", page: -5, expectedPage: 1, expectedCount: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(records, tt.page)
			assert.Equal(t, tt.expectedPage, p.Current)
			assert.Len(t, p.Records, tt.expectedCount)
			assert.Equal(t, 23, p.Total)
			assert.Equal(t, 3, p.TotalPages)
		})
	}
}

func TestPaginate_EmptySet(t *testing.T) {
	p := Paginate(nil, 1)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.Current)
	assert.Equal(t, 0, p.Total)
	assert.Empty(t, p.Records)
}

func recordIDs(records []models.ApplicationRecord) []string {
	if records == nil {
		return nil
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}
