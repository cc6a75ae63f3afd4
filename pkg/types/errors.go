package types

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	ErrKindInvalidSize   ErrKind = iota // requested region size is not positive
	ErrKindAlreadyExists                // caller already owns a region
	ErrKindNoSuchRegion                 // caller (or clone target) owns no region
	ErrKindOutOfBounds                  // offset/length outside the region bound
	ErrKindProtection                   // page protection state broke the isolation contract
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindInvalidSize:
		return "invalid_size"
	case ErrKindAlreadyExists:
		return "already_exists"
	case ErrKindNoSuchRegion:
		return "no_such_region"
	case ErrKindOutOfBounds:
		return "out_of_bounds"
	case ErrKindProtection:
		return "protection"
	default:
		return "unknown"
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, so an Error built
// with extra context still matches the sentinel of its category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return 0, false
		}
		err = u.Unwrap()
	}
	return 0, false
}

// Sentinels returned by the engine. Operations wrap them with context, so
// compare with errors.Is rather than ==.
var (
	// ErrInvalidSize indicates a create request for zero or negative bytes.
	ErrInvalidSize = &Error{Kind: ErrKindInvalidSize, Msg: "invalid region size"}
	// ErrAlreadyExists indicates the caller already owns a region.
	ErrAlreadyExists = &Error{Kind: ErrKindAlreadyExists, Msg: "region already exists"}
	// ErrNoSuchRegion indicates the caller or the clone target owns no region.
	ErrNoSuchRegion = &Error{Kind: ErrKindNoSuchRegion, Msg: "no such region"}
	// ErrOutOfBounds indicates offset+length exceeds the region bound.
	ErrOutOfBounds = &Error{Kind: ErrKindOutOfBounds, Msg: "access out of bounds"}
	// ErrProtection indicates a page was accessible outside an API call.
	ErrProtection = &Error{Kind: ErrKindProtection, Msg: "page protection violated"}
)
