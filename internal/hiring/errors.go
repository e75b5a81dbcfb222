package hiring

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/hiring-pipeline/internal/pipeline"
)

// Error kinds. Concrete errors wrap or match one of these so the transport
// layer can map them with errors.Is.
var (
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrConflict             = errors.New("concurrent update conflict")
	ErrUpstreamNotification = errors.New("upstream notification failure")
)

// NotFoundError indicates a referenced record does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError indicates request validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Is matches ErrInvalidArgument.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// PartialWriteError reports that the process record was committed but the
// follow-up candidate write was not. Both IDs are kept for reconciliation.
type PartialWriteError struct {
	ProcessID   string
	CandidateID string
	Step        string
	Err         error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("process %s committed but candidate %s %s failed: %v", e.ProcessID, e.CandidateID, e.Step, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

func forbidden(msg string) error {
	return fmt.Errorf("%w: %s", ErrForbidden, msg)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// fromPipeline converts pipeline input errors to ValidationError and passes
// everything else through.
func fromPipeline(err error) error {
	var in *pipeline.InputError
	if errors.As(err, &in) {
		return &ValidationError{Field: in.Field, Message: in.Message}
	}
	return err
}

// fromValidator converts go-playground validation errors, reporting the
// first failing field.
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: "invalid request"}
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return invalid(field, "is required")
	case "required_with":
		return invalid(field, "is required when moving a candidate")
	case "email":
		return invalid(field, "must be a valid email address")
	case "candidate_status":
		return invalid(field, fmt.Sprintf("%q is not a recognized status", fe.Value()))
	case "min", "max":
		return invalid(field, fmt.Sprintf("violates %s=%s", fe.Tag(), fe.Param()))
	default:
		return invalid(field, "failed on "+fe.Tag())
	}
}
