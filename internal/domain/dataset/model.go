package dataset

import "time"

// Type classifies what business data a dataset holds.
type Type string

const (
	TypeSales      Type = "sales"
	TypeCustomers  Type = "customers"
	TypeCosts      Type = "costs"
	TypeInventory  Type = "inventory"
	TypeMarketing  Type = "marketing"
	TypeFinancial  Type = "financial"
	TypeHR         Type = "hr"
	TypeOperations Type = "operations"
	TypeOther      Type = "other"
)

// Valid reports whether the type is known.
func (t Type) Valid() bool {
	switch t {
	case TypeSales, TypeCustomers, TypeCosts, TypeInventory, TypeMarketing,
		TypeFinancial, TypeHR, TypeOperations, TypeOther:
		return true
	}
	return false
}

// SampleLimit is the most rows persisted with a dataset.
const SampleLimit = 100

// Dataset is an uploaded spreadsheet attached to a tenant.
type Dataset struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	Name      string     `json:"name"`
	Type      Type       `json:"type"`
	FileName  string     `json:"file_name"`
	RowCount  int        `json:"row_count"`
	Headers   []string   `json:"headers"`
	Sample    [][]string `json:"sample"`
	Summary   string     `json:"summary"`
	CreatedAt time.Time  `json:"created_at"`
}

// Parsed is the full in-memory form of an uploaded file.
type Parsed struct {
	Headers  []string
	Rows     [][]string
	RowCount int
	Summary  string
}

// Head returns at most n rows.
func (p *Parsed) Head(n int) [][]string {
	if n < 0 || n >= len(p.Rows) {
		return p.Rows
	}
	return p.Rows[:n]
}
