package kernel

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ErrorKind classifies interpreter failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindSyntax
	KindRuntime
	KindError
	KindPanic
	KindFile
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindRuntime:
		return "runtime"
	case KindError:
		return "error"
	case KindPanic:
		return "panic"
	case KindFile:
		return "file"
	}
	return "unknown"
}

// kindOf maps the interpreter's error taxonomy onto ours.
func kindOf(err error) ErrorKind {
	api, ok := err.(*lua.ApiError)
	if !ok {
		return KindUnknown
	}
	switch api.Type {
	case lua.ApiErrorSyntax:
		return KindSyntax
	case lua.ApiErrorRun:
		return KindRuntime
	case lua.ApiErrorError:
		return KindError
	case lua.ApiErrorPanic:
		return KindPanic
	case lua.ApiErrorFile:
		return KindFile
	}
	return KindUnknown
}

// ScriptLoadError reports a failure compiling script source.
type ScriptLoadError struct {
	Kind   ErrorKind
	Detail string
}

func (e *ScriptLoadError) Error() string {
	return fmt.Sprintf("kernel: script load failed (%s): %s", e.Kind, e.Detail)
}

// ScriptRuntimeError reports a failure during a protected script call.
type ScriptRuntimeError struct {
	Kind      ErrorKind
	Detail    string
	Traceback string
}

func (e *ScriptRuntimeError) Error() string {
	return fmt.Sprintf("kernel: script error (%s): %s", e.Kind, e.Detail)
}

// loadError wraps a compile failure.
func loadError(err error) *ScriptLoadError {
	return &ScriptLoadError{Kind: kindOf(err), Detail: err.Error()}
}

// runtimeError wraps a protected-call failure.
func runtimeError(err error) *ScriptRuntimeError {
	e := &ScriptRuntimeError{Kind: kindOf(err), Detail: err.Error()}
	if api, ok := err.(*lua.ApiError); ok {
		e.Traceback = api.StackTrace
	}
	return e
}

// ShapeError reports a script value whose shape violates the GML round-trip
// format.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string {
	return "kernel: bad config shape: " + e.Msg
}

// EventResult is the outcome of a script-driven operation. The flags are
// conservative: GameStateChanged may be falsely true but never falsely
// false; Undoable may be falsely false but never falsely true.
type EventResult struct {
	Err              error
	GameStateChanged bool
	Undoable         bool
}
