package common

// Result is the standard JSON body for every API response. It is the sole
// externally observable artifact of a submission besides side effects.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewSuccessResult creates a successful result with a localized message
func NewSuccessResult(message string) Result {
	return Result{
		Success: true,
		Message: message,
	}
}

// NewErrorResult creates a failed result with a localized message
func NewErrorResult(message string) Result {
	return Result{
		Success: false,
		Message: message,
	}
}
