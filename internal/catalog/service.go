package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformed indicates the backend answered with something other than the
	// expected shape (a JSON array for product lists).
	ErrMalformed = errors.New("catalog: malformed response")
	// ErrInvalidSubmission is returned when a subscriber submission fails validation.
	ErrInvalidSubmission = errors.New("catalog: invalid submission")
)

// StatusError reports a non-2xx backend response. When the body was still
// valid JSON the backend answered in the wrong shape and the error matches
// ErrMalformed; an undecodable body (an HTML gateway page, say) does not.
type StatusError struct {
	Op     string
	Status int
	Body   string
	// JSONBody is set when the response body parsed as JSON.
	JSONBody bool
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("catalog: %s status %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("catalog: %s status %d", e.Op, e.Status)
}

// Is reports shape failures as ErrMalformed.
func (e *StatusError) Is(target error) bool { return target == ErrMalformed && e.JSONBody }

// Source fetches the two product collections.
type Source interface {
	// Current returns the products of the active drop.
	Current(ctx context.Context) ([]Product, error)
	// Archive returns previously released products.
	Archive(ctx context.Context) ([]Product, error)
}

// Subscriber accepts signups for drop notifications.
type Subscriber interface {
	Subscribe(ctx context.Context, sub Submission) (SubscribeResult, error)
}

// Seeder asks the backend to populate demo data.
type Seeder interface {
	Seed(ctx context.Context) error
}

// Service is the full backend surface used by the storefront.
type Service interface {
	Source
	Subscriber
	Seeder
}

// Submission is one signup request.
type Submission struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name,omitempty" validate:"max=200"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims whitespace from both fields.
func (s Submission) Normalize() Submission {
	return Submission{
		Email: strings.TrimSpace(s.Email),
		Name:  strings.TrimSpace(s.Name),
	}
}

// Validate checks the submission the way the browser's required/type=email
// controls would, returning an error wrapping ErrInvalidSubmission.
func (s Submission) Validate() error {
	if err := validate.Struct(s.Normalize()); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+":"+fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalidSubmission, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}
	return nil
}

// SubscribeResult mirrors the backend subscribe payload.
type SubscribeResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OK reports the explicit success indicator.
func (r SubscribeResult) OK() bool { return r.Status == "ok" }
