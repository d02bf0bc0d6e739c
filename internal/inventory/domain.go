package inventory

import (
	"github.com/shopspring/decimal"
)

// Direction selects the sign applied to every line of a batch.
type Direction int

const (
	// DirectionAdd increases stock (purchase receipt, sale reversal).
	DirectionAdd Direction = 1
	// DirectionDeduct decreases stock (sale, purchase reversal).
	DirectionDeduct Direction = -1
)

func (d Direction) String() string {
	if d == DirectionDeduct {
		return "deduct"
	}
	return "add"
}

// LineTarget addresses the stock cell a movement touches.
type LineTarget struct {
	ProductID string
	VariantID *string
}

// HasVariant reports whether the target points at a variant.
func (t LineTarget) HasVariant() bool {
	return t.VariantID != nil && *t.VariantID != ""
}

// LineItem is one order line as submitted by a client.
type LineItem struct {
	ProductID  string          `json:"product_id" validate:"required"`
	VariantID  *string         `json:"variant_id,omitempty"`
	Quantity   int             `json:"quantity" validate:"gt=0"`
	UnitAmount decimal.Decimal `json:"unit_amount"`
}

// Target returns the stock cell of the line. An empty variant id means none.
func (l LineItem) Target() LineTarget {
	target := LineTarget{ProductID: l.ProductID}
	if l.VariantID != nil && *l.VariantID != "" {
		id := *l.VariantID
		target.VariantID = &id
	}
	return target
}

// Movement is a quantity applied to a target.
type Movement struct {
	Target   LineTarget
	Quantity int
}

// Availability describes the stock visible for one requested line.
type Availability struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// Sufficient reports whether the line can be fulfilled.
func (a Availability) Sufficient() bool {
	return a.Available >= a.Requested
}
