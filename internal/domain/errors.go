package domain

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable failure category. Handlers and the orchestrator
// branch on kinds, never on message text.
type Kind string

const (
	KindInvalidImage      Kind = "invalid_image"
	KindModelUnavailable  Kind = "model_unavailable"
	KindCameraUnavailable Kind = "camera_unavailable"
	KindMissingSource     Kind = "missing_source"
	KindAssetMissing      Kind = "asset_missing"
	KindRenderFailed      Kind = "render_failed"
	KindStoreUnavailable  Kind = "store_unavailable"
	KindNotFound          Kind = "not_found"
	KindConfiguration     Kind = "configuration_error"
	KindUnknown           Kind = "unknown"
)

// Error carries a Kind alongside a human message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// E builds a new kinded error.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Ef builds a new kinded error with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the Kind of err, walking the wrap chain. The innermost
// *Error wins so a stage failure keeps its category when the orchestrator
// re-wraps it.
func KindOf(err error) Kind {
	kind := KindUnknown
	for err != nil {
		var de *Error
		if errors.As(err, &de) {
			kind = de.Kind
			err = de.Err
			continue
		}
		break
	}
	return kind
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Kind == kind {
			return true
		}
		err = de.Err
	}
	return false
}
