package errs

// Error categories. Every public sentinel belongs to exactly one of them and
// the HTTP layer maps categories to status codes.
var (
	ErrValidation         = New("validation error")
	ErrNotFound           = New("not found")
	ErrForbidden          = New("forbidden")
	ErrConflict           = New("conflict")
	ErrGatewayUnavailable = New("gateway unavailable")
	ErrSignature          = New("signature mismatch")
)

var categories = []error{
	ErrValidation,
	ErrNotFound,
	ErrForbidden,
	ErrConflict,
	ErrGatewayUnavailable,
	ErrSignature,
}

type kindError struct {
	msg      string
	category error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.category }

// Kind creates a sentinel error with a user-facing message that matches its
// category under Is. Messages must be unique across sentinels.
func Kind(msg string, category error) error {
	return &kindError{msg: msg, category: category}
}

// CategoryOf returns the category the error belongs to, or nil when it is an
// unexpected failure.
func CategoryOf(err error) error {
	if err == nil {
		return nil
	}
	for _, c := range categories {
		if Is(err, c) {
			return c
		}
	}
	return nil
}

// PublicMessage returns the message of the innermost sentinel created by Kind,
// without any internal wrapping context.
func PublicMessage(err error) (string, bool) {
	var ke *kindError
	if As(err, &ke) {
		return ke.msg, true
	}
	return "", false
}
