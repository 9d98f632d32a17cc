package common

import "fmt"

// ContractError reports a violated input precondition. Structural policy
// outcomes (budget exhaustion, threshold-protected pruning residue, empty
// seed expansion) are not errors and never produce one of these.
type ContractError struct {
	Precondition string
	Detail       string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract violation (%s): %s", e.Precondition, e.Detail)
}

// Violation builds a ContractError for the named precondition.
func Violation(precondition string, format string, args ...any) error {
	return &ContractError{
		Precondition: precondition,
		Detail:       fmt.Sprintf(format, args...),
	}
}
