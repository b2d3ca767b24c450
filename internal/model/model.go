// Package model defines the ledger entities shared by the importer,
// the repositories, and the HTTP surface.
package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FilePositioning classifies a contract row within its contract family.
type FilePositioning string

const (
	PositioningMain        FilePositioning = "main"
	PositioningSupplement  FilePositioning = "supplement"
	PositioningTermination FilePositioning = "termination"
	PositioningFramework   FilePositioning = "framework"
)

// positioningLabels maps the spreadsheet labels to their canonical values.
var positioningLabels = map[string]FilePositioning{
	"主合同":  PositioningMain,
	"补充协议": PositioningSupplement,
	"解除协议": PositioningTermination,
	"框架协议": PositioningFramework,
}

// ParseFilePositioning resolves a spreadsheet label to a FilePositioning.
// A blank label defaults to the main contract.
func ParseFilePositioning(s string) (FilePositioning, error) {
	if s == "" {
		return PositioningMain, nil
	}
	if p, ok := positioningLabels[s]; ok {
		return p, nil
	}
	return "", fmt.Errorf("unknown file positioning %q", s)
}

// IsDependent reports whether the positioning requires a parent main contract.
func (p FilePositioning) IsDependent() bool {
	return p == PositioningSupplement || p == PositioningTermination
}

// Label returns the spreadsheet label for the positioning.
func (p FilePositioning) Label() string {
	for label, v := range positioningLabels {
		if v == p {
			return label
		}
	}
	return string(p)
}

// ContractSource records how a contract came to exist.
type ContractSource string

const (
	SourceProcurement ContractSource = "procurement"
	SourceDirect      ContractSource = "direct"
)

// ParseContractSource resolves a spreadsheet label to a ContractSource.
// Blank is returned as-is so dependents can inherit from their parent.
func ParseContractSource(s string) (ContractSource, error) {
	switch s {
	case "":
		return "", nil
	case "采购", "采购合同":
		return SourceProcurement, nil
	case "直签", "直签合同":
		return SourceDirect, nil
	}
	return "", fmt.Errorf("unknown contract source %q", s)
}

// Project is the top-level grouping entity.
type Project struct {
	ID        int64
	Code      string
	Name      string
	CreatedAt time.Time
}

// Procurement is a sourcing activity, optionally tied to a project.
type Procurement struct {
	ID            int64
	Code          string
	Name          string
	ProjectCode   string // empty when not tied to a project
	BudgetAmount  decimal.NullDecimal
	WinningAmount decimal.NullDecimal
	ResultDate    time.Time // zero when unknown
	CreatedAt     time.Time
}

// Contract is a signed agreement. Supplements and terminations reference
// their main contract through ParentCode.
type Contract struct {
	ID              int64
	Code            string
	Name            string
	SequenceNumber  string // human-assigned business sequence number
	Positioning     FilePositioning
	Source          ContractSource
	ParentCode      string // resolved main contract code, dependents only
	ProjectCode     string
	ProcurementCode string
	PartyA          string
	PartyB          string
	SignedAt        time.Time
	Amount          decimal.NullDecimal
	PaymentMethod   string
	ArchivedAt      time.Time
	SettlementPrice decimal.NullDecimal
	Settled         bool
	CreatedAt       time.Time
}

// PaymentIdent returns the identifier used as the payment code prefix:
// the business sequence number when present, otherwise the contract code.
func (c *Contract) PaymentIdent() string {
	if c.SequenceNumber != "" {
		return c.SequenceNumber
	}
	return c.Code
}

// Payment is a single disbursement under a contract. Code and Sequence are
// derived by the importer, never supplied by upstream data.
type Payment struct {
	ID           int64
	Code         string
	ContractCode string
	Sequence     int
	Amount       decimal.Decimal
	PaidAt       time.Time
	CreatedAt    time.Time
}

// PaymentCode renders the canonical payment code for an identifier and a
// sequence number: {ident}-FK-{seq:03d}.
func PaymentCode(ident string, seq int) string {
	return fmt.Sprintf("%s-FK-%03d", ident, seq)
}

// Evaluation is a post-performance score for a contract, bounded [0,100].
type Evaluation struct {
	ID           int64
	Code         string
	ContractCode string
	Score        float64
	EvaluatedAt  time.Time
	CreatedAt    time.Time
}
