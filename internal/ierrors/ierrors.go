// Package ierrors implements the install manager's error taxonomy.
//
// Every error that can abort a pipeline or a dependency batch is one of
// the kinds below. Kinds determine how the pipeline surfaces the error
// (notification vs dedicated dialog) and whether it's eligible for
// automated reporting.
package ierrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure for user-facing handling and reporting.
type Kind int

const (
	// UserCanceled means the user dismissed a dialog.
	UserCanceled Kind = iota
	// ProcessCanceled means policy refused to continue (no game picked,
	// empty archive, fatal installer error).
	ProcessCanceled
	// TemporaryError means a transient failure occurred.
	TemporaryError
	// ArchiveBroken means the extractor reported a critical message.
	ArchiveBroken
	// SetupError means no installer was available, or the environment
	// is wrong.
	SetupError
	// DataInvalid means an installer produced bad instruction data.
	DataInvalid
	// NotFound means a dependency's source could not be located.
	NotFound
	// Unknown is the catch-all, and the only reportable kind.
	Unknown
)

func (k Kind) String() string {
	switch k {
	case UserCanceled:
		return "UserCanceled"
	case ProcessCanceled:
		return "ProcessCanceled"
	case TemporaryError:
		return "TemporaryError"
	case ArchiveBroken:
		return "ArchiveBroken"
	case SetupError:
		return "SetupError"
	case DataInvalid:
		return "DataInvalid"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// InstallError is the tagged error type propagated out of the pipeline
// and the dependency resolver.
type InstallError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *InstallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *InstallError) Unwrap() error {
	return e.Cause
}

// Reportable is true only for Unknown errors. It does not track whether
// an error was already filed or ignored.
func (e *InstallError) Reportable() bool {
	return e.Kind == Unknown
}

func newErr(kind Kind, message string, cause error) *InstallError {
	return &InstallError{Kind: kind, Message: message, Cause: cause}
}

func NewUserCanceled(message string) error {
	return newErr(UserCanceled, message, nil)
}

func NewProcessCanceled(message string) error {
	return newErr(ProcessCanceled, message, nil)
}

func NewTemporaryError(message string, cause error) error {
	return errors.WithStack(newErr(TemporaryError, message, cause))
}

func NewArchiveBroken(message string) error {
	return newErr(ArchiveBroken, message, nil)
}

func NewSetupError(message string) error {
	return newErr(SetupError, message, nil)
}

func NewDataInvalid(message string) error {
	return newErr(DataInvalid, message, nil)
}

func NewNotFound(message string) error {
	return newErr(NotFound, message, nil)
}

func NewUnknown(cause error) error {
	return errors.WithStack(newErr(Unknown, "installation failed", cause))
}

// KindOf unwraps err looking for an *InstallError, returning Unknown if
// none is found in the chain.
func KindOf(err error) Kind {
	var ie *InstallError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return Unknown
}

// Is reports whether err (or something it wraps) has the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
