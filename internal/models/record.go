// internal/models/record.go
package models

// ApplicationRecord is one submitted subsidy application. Created once at
// submission time, immutable afterwards; never updated or deleted here.
// JSON tags match the sheet endpoint's column names.
type ApplicationRecord struct {
	ID            string `json:"id"`
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
	Date          string `json:"date"`
}

// Identity is the salesperson identity triple used for the self-scoped
// history view. Phone is compared digits-only.
type Identity struct {
	BranchName string `json:"branchName"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

// Complete reports whether the identity can select any records at all.
func (i Identity) Complete() bool {
	return i.BranchName != "" && i.Name != ""
}
