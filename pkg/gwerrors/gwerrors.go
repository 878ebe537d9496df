package gwerrors

import "fmt"

// Category classifies a gateway verification failure for handling
type Category string

const (
	CategoryNotPaid      Category = "not_paid"      // provider reports a non-success status
	CategoryNotFound     Category = "not_found"     // reference does not exist at the provider
	CategoryTimeout      Category = "timeout"       // bounded call deadline exceeded
	CategoryNetworkError Category = "network_error" // transport failure before a response
	CategoryBadResponse  Category = "bad_response"  // provider answered with something unparseable
	CategoryAuth         Category = "auth"          // credentials rejected by the provider
)

// VerificationError is a gateway verification failure with enough context
// to decide whether a retry could ever succeed.
type VerificationError struct {
	Gateway     string
	Category    Category
	Message     string
	IsRetriable bool
	Err         error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s verification failed (%s): %s: %v", e.Gateway, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s verification failed (%s): %s", e.Gateway, e.Category, e.Message)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// New creates a verification error. Timeouts and transport failures are
// retriable; everything else reflects provider state and is not.
func New(gateway string, category Category, message string) *VerificationError {
	return &VerificationError{
		Gateway:     gateway,
		Category:    category,
		Message:     message,
		IsRetriable: category == CategoryTimeout || category == CategoryNetworkError,
	}
}

// Wrap creates a verification error around an underlying cause
func Wrap(gateway string, category Category, message string, err error) *VerificationError {
	e := New(gateway, category, message)
	e.Err = err
	return e
}
