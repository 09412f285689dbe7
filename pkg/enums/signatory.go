package enums

import "fmt"

// Signatory names a signature slot on an order of payment. Both slots must be
// filled before the OOP can be approved.
type Signatory string

const (
	SignatoryChiefRPS          Signatory = "chief_rps"
	SignatoryTechnicalServices Signatory = "technical_services"
)

var validSignatories = []Signatory{
	SignatoryChiefRPS,
	SignatoryTechnicalServices,
}

// RequiredSignatories returns every slot that must be signed before approval.
func RequiredSignatories() []Signatory {
	out := make([]Signatory, len(validSignatories))
	copy(out, validSignatories)
	return out
}

// IsValid checks whether the given signatory matches the canonical enum.
func (s Signatory) IsValid() bool {
	for _, candidate := range validSignatories {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSignatory converts raw strings into Signatory.
func ParseSignatory(value string) (Signatory, error) {
	for _, candidate := range validSignatories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid signatory %q", value)
}
