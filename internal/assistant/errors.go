package assistant

import (
	"errors"
	"fmt"
)

// ErrRunFailed means a remote conversation run did not reach the completed
// state. The chat turn is lost; the user may retry by resending.
var ErrRunFailed = errors.New("assistant run did not complete")

// OnboardingError wraps any failure inside the onboarding pipeline with the
// company it was onboarding. Already-persisted stages are kept, so a retry
// resumes instead of recomputing.
type OnboardingError struct {
	Company string
	Err     error
}

func (e *OnboardingError) Error() string {
	return fmt.Sprintf("failed to onboard company %q: %v", e.Company, e.Err)
}

func (e *OnboardingError) Unwrap() error {
	return e.Err
}

func onboardingErr(company string, err error) error {
	return &OnboardingError{Company: company, Err: err}
}
