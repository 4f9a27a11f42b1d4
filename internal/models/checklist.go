// internal/models/checklist.go
package models

// ChecklistItem is one required-document item of the fixed template.
type ChecklistItem struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	LinkURL     string `json:"linkUrl,omitempty"`
}
