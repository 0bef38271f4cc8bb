package helpdesk

import "fmt"

// PartialModuleError reports that one module's demo points could not be
// fetched. Ingestion skips that module and carries on.
type PartialModuleError struct {
	ModuleID   string
	StatusCode int
	Err        error
}

func (e *PartialModuleError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("module %s: HTTP %d", e.ModuleID, e.StatusCode)
	}
	return fmt.Sprintf("module %s: %v", e.ModuleID, e.Err)
}

func (e *PartialModuleError) Unwrap() error {
	return e.Err
}
