package storeapi

import (
	"fmt"

	"github.com/vladislavdragonenkov/minimart/internal/domain"
)

// APIError описывает неуспешный вызов удалённого API.
// Kind — одна из ошибок таксономии (ErrAuthenticationRequired или ErrNetworkOrServer).
type APIError struct {
	Op         string
	StatusCode int
	Body       string
	Kind       error
	Cause      error
}

func (e *APIError) Error() string {
	switch {
	case e.Kind == domain.ErrAuthenticationRequired:
		return fmt.Sprintf("%s: authentication required", e.Op)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: API Error: %d - %s", e.Op, e.StatusCode, e.Body)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
}

// Unwrap позволяет проверять и класс ошибки, и исходную причину через errors.Is.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
