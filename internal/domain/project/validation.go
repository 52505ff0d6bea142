package project

import (
	"fmt"
	"math"
)

// ValidateCreateInput validates a submission. No field is required; only
// values that can never be stored meaningfully are rejected.
func ValidateCreateInput(req CreateRequest) error {
	if req.Hectares < 0 || math.IsNaN(req.Hectares) || math.IsInf(req.Hectares, 0) {
		return ErrInvalidInput
	}
	if req.EcosystemType != "" && !req.EcosystemType.Valid() {
		return ErrInvalidInput
	}
	return nil
}

// ValidateRecord checks a whole record before it replaces stored data. The
// same area and ecosystem rules as submissions apply, and the status must be
// one of the lifecycle states.
func ValidateRecord(p Project) error {
	switch {
	case !p.Status.Valid():
		return fmt.Errorf("%w: project %s: status %q", ErrInvalidInput, p.ID, p.Status)
	case !p.EcosystemType.Valid():
		return fmt.Errorf("%w: project %s: ecosystem type %q", ErrInvalidInput, p.ID, p.EcosystemType)
	case p.Hectares < 0:
		return fmt.Errorf("%w: project %s: negative area %g", ErrInvalidInput, p.ID, p.Hectares)
	case p.EstimatedCredits < 0 || p.CreditsMinted < 0:
		return fmt.Errorf("%w: project %s: negative credits", ErrInvalidInput, p.ID)
	}
	return nil
}

// ValidateTransition enforces the forward-only lifecycle
// submitted → approved → minted, one step at a time.
func ValidateTransition(from, to Status) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	valid := false
	switch from {
	case StatusSubmitted:
		valid = to == StatusApproved
	case StatusApproved:
		valid = to == StatusMinted
	}
	if !valid {
		return ErrInvalidTransition
	}
	return nil
}
