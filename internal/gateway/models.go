// internal/gateway/models.go
package gateway

import (
	"encoding/json"

	"smartstore-assistant/internal/models"
)

// flexString accepts both JSON strings and numbers. Spreadsheet cells
// holding phone numbers or numeric passwords come back as numbers, and
// identity comparison must still work on them.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// wireSalesperson is the roster row as the sheet endpoint serves it.
type wireSalesperson struct {
	BranchName string     `json:"branchName"`
	Name       string     `json:"name"`
	Phone      flexString `json:"phone"`
	Password   flexString `json:"password"`
}

type wireBranchAuth struct {
	BranchName string     `json:"branchName"`
	Password   flexString `json:"password"`
}

type wireRecord struct {
	ID            flexString `json:"id"`
	BranchName    string     `json:"branchName"`
	BranchRep     string     `json:"branchRep"`
	SalesPassword flexString `json:"salesPassword"`
	BranchPhone   flexString `json:"branchPhone"`
	BusinessName  string     `json:"businessName"`
	RepName       string     `json:"repName"`
	PhoneNumber   flexString `json:"phoneNumber"`
	Address       string     `json:"address"`
	StoreID       flexString `json:"storeId"`
	StorePW       flexString `json:"storePw"`
	Date          string     `json:"date"`
}

// snapshotPayload uses pointer fields so an absent key can be told apart
// from an empty array: absent keys leave local reference data unchanged.
type snapshotPayload struct {
	Branches     *[]string          `json:"branches"`
	Salespersons *[]wireSalesperson `json:"salespersons"`
	History      *[]wireRecord      `json:"history"`
	BranchAuth   *[]wireBranchAuth  `json:"branchAuth"`
}

func (w wireSalesperson) toModel() models.Salesperson {
	return models.Salesperson{
		BranchName: w.BranchName,
		Name:       w.Name,
		Phone:      string(w.Phone),
		Password:   string(w.Password),
	}
}

func (w wireBranchAuth) toModel() models.BranchAuth {
	return models.BranchAuth{
		BranchName: w.BranchName,
		Password:   string(w.Password),
	}
}

func (w wireRecord) toModel() models.ApplicationRecord {
	return models.ApplicationRecord{
		ID:            string(w.ID),
		BranchName:    w.BranchName,
		BranchRep:     w.BranchRep,
		SalesPassword: string(w.SalesPassword),
		BranchPhone:   string(w.BranchPhone),
		BusinessName:  w.BusinessName,
		RepName:       w.RepName,
		PhoneNumber:   string(w.PhoneNumber),
		Address:       w.Address,
		StoreID:       string(w.StoreID),
		StorePW:       string(w.StorePW),
		Date:          w.Date,
	}
}

// submitPayload is the fire-and-forget submission body. The locally
// generated record id is not sent; the sheet keeps its own row order.
type submitPayload struct {
	BranchName       string `json:"branchName"`
	BranchRep        string `json:"branchRep"`
	SalesPassword    string `json:"salesPassword"`
	BranchPhone      string `json:"branchPhone"`
	BusinessName     string `json:"businessName"`
	RepName          string `json:"repName"`
	PhoneNumber      string `json:"phoneNumber"`
	Address          string `json:"address"`
	StoreID          string `json:"storeId"`
	StorePW          string `json:"storePw"`
	Date             string `json:"date"`
	IsNewSalesperson bool   `json:"isNewSalesperson"`
}

type registerPayload struct {
	Type       string `json:"type"`
	BranchName string `json:"branchName"`
	Password   string `json:"password"`
}

// snapshotSchema rejects grossly malformed snapshot bodies before any
// merge happens; an invalid body counts as a failed fetch.
const snapshotSchema = `{
	"type": "object",
	"properties": {
		"branches": {
			"type": "array",
			"items": {"type": "string"}
		},
		"salespersons": {
			"type": "array",
			"items": {"type": "object"}
		},
		"history": {
			"type": "array",
			"items": {"type": "object"}
		},
		"branchAuth": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`
