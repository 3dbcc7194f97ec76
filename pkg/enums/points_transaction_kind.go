package enums

import "fmt"

// PointsTransactionKind maps to the points_transaction_kind enum in Postgres.
type PointsTransactionKind string

const (
	PointsTransactionKindEarn   PointsTransactionKind = "EARN"
	PointsTransactionKindRedeem PointsTransactionKind = "REDEEM"
)

var validPointsTransactionKinds = []PointsTransactionKind{
	PointsTransactionKindEarn,
	PointsTransactionKindRedeem,
}

// String implements fmt.Stringer.
func (k PointsTransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value matches the canonical kind enum.
func (k PointsTransactionKind) IsValid() bool {
	for _, candidate := range validPointsTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParsePointsTransactionKind converts raw input into a PointsTransactionKind.
func ParsePointsTransactionKind(value string) (PointsTransactionKind, error) {
	for _, candidate := range validPointsTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points transaction kind %q", value)
}
