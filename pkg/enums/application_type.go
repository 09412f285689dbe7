package enums

import "fmt"

// ApplicationType maps to the application_type enum in Postgres. It is
// immutable once a permit has been created.
type ApplicationType string

const (
	ApplicationTypeChainsawRegistration      ApplicationType = "chainsaw_registration"
	ApplicationTypeCertificateOfVerification ApplicationType = "certificate_of_verification"
	ApplicationTypePrivatePlantation         ApplicationType = "private_tree_plantation_registration"
	ApplicationTypePublicLandTreeCutting     ApplicationType = "public_land_tree_cutting_permit"
	ApplicationTypePrivateLandTreeCutting    ApplicationType = "private_land_tree_cutting_permit"
	ApplicationTypeGovernmentTreeCutting     ApplicationType = "national_government_agency_tree_cutting"
)

var validApplicationTypes = []ApplicationType{
	ApplicationTypeChainsawRegistration,
	ApplicationTypeCertificateOfVerification,
	ApplicationTypePrivatePlantation,
	ApplicationTypePublicLandTreeCutting,
	ApplicationTypePrivateLandTreeCutting,
	ApplicationTypeGovernmentTreeCutting,
}

// IsValid checks whether the given type matches the canonical enum.
func (a ApplicationType) IsValid() bool {
	for _, candidate := range validApplicationTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApplicationType converts raw strings into ApplicationType.
func ParseApplicationType(value string) (ApplicationType, error) {
	for _, candidate := range validApplicationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid application type %q", value)
}
