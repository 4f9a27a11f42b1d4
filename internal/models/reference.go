// internal/models/reference.go
package models

// Salesperson is read-only roster data pulled from the sheet endpoint.
type Salesperson struct {
	BranchName string `json:"branchName"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Password   string `json:"password"`
}

// BranchAuth is the branch-scoped access password, created on demand via
// a registration request when absent.
type BranchAuth struct {
	BranchName string `json:"branchName"`
	Password   string `json:"password"`
}

// Snapshot is the latest pulled copy of remote reference data. It is an
// immutable value: a successful fetch replaces fields wholesale, filters
// receive it as an explicit parameter and never mutate it.
type Snapshot struct {
	Branches     []string            `json:"branches"`
	Salespersons []Salesperson       `json:"salespersons"`
	History      []ApplicationRecord `json:"history"`
	BranchAuth   []BranchAuth        `json:"branchAuth"`
}
