package domain

import dErrors "pastcheck/pkg/domain-errors"

// Jurisdiction is the state a court-record search is scoped to.
// Invariant: the value must be one of the recognized jurisdictions.
//
// Usage: construct via ParseJurisdiction at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Jurisdiction string

// Recognized jurisdictions, matching the court portals the record connector
// knows how to query.
const (
	JurisdictionDelhi        Jurisdiction = "Delhi"
	JurisdictionMaharashtra  Jurisdiction = "Maharashtra"
	JurisdictionKarnataka    Jurisdiction = "Karnataka"
	JurisdictionTamilNadu    Jurisdiction = "Tamil Nadu"
	JurisdictionTelangana    Jurisdiction = "Telangana"
	JurisdictionGujarat      Jurisdiction = "Gujarat"
	JurisdictionRajasthan    Jurisdiction = "Rajasthan"
	JurisdictionWestBengal   Jurisdiction = "West Bengal"
	JurisdictionUttarPradesh Jurisdiction = "Uttar Pradesh"
	JurisdictionPunjab       Jurisdiction = "Punjab"
)

// validJurisdictions is the single source of truth for recognized values.
var validJurisdictions = map[Jurisdiction]bool{
	JurisdictionDelhi:        true,
	JurisdictionMaharashtra:  true,
	JurisdictionKarnataka:    true,
	JurisdictionTamilNadu:    true,
	JurisdictionTelangana:    true,
	JurisdictionGujarat:      true,
	JurisdictionRajasthan:    true,
	JurisdictionWestBengal:   true,
	JurisdictionUttarPradesh: true,
	JurisdictionPunjab:       true,
}

// ParseJurisdiction constructs a Jurisdiction from external input. The empty
// string is not accepted here; an absent state is modeled as a nil pointer on
// the request, not a sentinel value.
//
// Errors: returns CodeBadRequest when the value is empty or unrecognized.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "state cannot be empty")
	}
	j := Jurisdiction(s)
	if !j.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "unrecognized state")
	}
	return j, nil
}

// IsValid checks if the jurisdiction is one of the recognized values.
func (j Jurisdiction) IsValid() bool {
	return validJurisdictions[j]
}

// String returns the string representation.
func (j Jurisdiction) String() string {
	return string(j)
}
