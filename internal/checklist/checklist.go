// internal/checklist/checklist.go
package checklist

import "smartstore-assistant/internal/models"

// template is the fixed required-document set. Not user-extensible at
// runtime; ids are stable across resets.
var template = []models.ChecklistItem{
	{
		ID:          "1",
		Task:        "소상공인확인서 발급",
		Description: "중소기업현황정보시스템(sminfo.mss.go.kr)에서 발급",
	},
	{
		ID:          "2",
		Task:        "납세증명서류 준비",
		Description: "국세 및 지방세 완납증명서(정부24, 방문, 민원우편, 모바일, 무인발급기)",
	},
	{
		ID:          "3",
		Task:        "취약계층 증빙서류",
		Description: "사업자등록증명(간이), 건강보험자격득실확인서, 장애인기업확인서",
	},
	{
		ID:          "4",
		Task:        "매장 사진 촬영",
		Description: "매장전면(간판포함) 2장, 내부사진 3~4장 준비",
	},
	{
		ID:          "5",
		Task:        "업체소개동기 및 활용계획",
		Description: "참고자료를 활용하여 미리 작성 및 준비",
	},
}

// Template returns a fresh copy of the item template, all incomplete.
func Template() []models.ChecklistItem {
	items := make([]models.ChecklistItem, len(template))
	copy(items, template)
	return items
}

// List tracks completion of the fixed checklist items.
type List struct {
	items []models.ChecklistItem
}

// New builds a List from persisted items, falling back to the template
// when nothing was persisted yet.
func New(items []models.ChecklistItem) *List {
	if len(items) == 0 {
		items = Template()
	}
	return &List{items: items}
}

// Toggle flips the completed flag of exactly one item and reports whether
// the id was known. Other items are never touched.
func (l *List) Toggle(id string) bool {
	for i := range l.items {
		if l.items[i].ID == id {
			l.items[i].Completed = !l.items[i].Completed
			return true
		}
	}
	return false
}

// IsComplete holds iff every item is completed.
func (l *List) IsComplete() bool {
	for _, item := range l.items {
		if !item.Completed {
			return false
		}
	}
	return true
}

// Items returns a copy of the current state.
func (l *List) Items() []models.ChecklistItem {
	items := make([]models.ChecklistItem, len(l.items))
	copy(items, l.items)
	return items
}

// Reset restores the template with every item incomplete.
func (l *List) Reset() {
	l.items = Template()
}
