package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Input errors
	CodeInputMissing Code = "INPUT_MISSING"

	// Provider errors
	CodeVerificationFailed   Code = "VERIFICATION_FAILED"
	CodeUnsupportedOperation Code = "UNSUPPORTED_OPERATION"

	// Storage errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
)
