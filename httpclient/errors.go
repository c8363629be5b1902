package httpclient

import (
	"errors"
	"fmt"
)

// ErrorType classifies client errors.
type ErrorType int

const (
	// InvalidArgument marks missing required input detected before any I/O
	InvalidArgument ErrorType = iota + 1
	// UnsupportedOperation marks a request method outside GET, POST, PUT and DELETE
	UnsupportedOperation
	// TransportFailure marks connection and I/O failures of the underlying transport
	TransportFailure
	// FilesystemFailure marks an unreadable upload file
	FilesystemFailure
	// InterceptorFailure marks a request interceptor that rejected the request
	InterceptorFailure
)

func (t ErrorType) String() string {
	switch t {
	case InvalidArgument:
		return "invalid argument"
	case UnsupportedOperation:
		return "unsupported operation"
	case TransportFailure:
		return "transport error"
	case FilesystemFailure:
		return "filesystem error"
	case InterceptorFailure:
		return "interceptor error"
	default:
		return "unknown error"
	}
}

// ClientError is implemented by every error returned by the client.
type ClientError interface {
	error
	Type() ErrorType
}

type invalidArgumentError struct {
	argument string
	message  string
}

// NewInvalidArgumentError reports a missing or malformed argument.
func NewInvalidArgumentError(argument, message string) ClientError {
	return &invalidArgumentError{argument: argument, message: message}
}

func (e *invalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.argument, e.message)
}

func (e *invalidArgumentError) Type() ErrorType { return InvalidArgument }

type unsupportedOperationError struct {
	method Method
}

// NewUnsupportedOperationError reports a method the client cannot send.
func NewUnsupportedOperationError(method Method) ClientError {
	return &unsupportedOperationError{method: method}
}

func (e *unsupportedOperationError) Error() string {
	return fmt.Sprintf("unsupported operation: request method %q is not supported", string(e.method))
}

func (e *unsupportedOperationError) Type() ErrorType { return UnsupportedOperation }

type transportError struct {
	message string
	err     error
}

// NewTransportError wraps a failure of the underlying transport.
func NewTransportError(message string, err error) ClientError {
	return &transportError{message: message, err: err}
}

func (e *transportError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("transport error: %s: %v", e.message, e.err)
	}
	return fmt.Sprintf("transport error: %s", e.message)
}

func (e *transportError) Type() ErrorType { return TransportFailure }

func (e *transportError) Unwrap() error { return e.err }

type filesystemError struct {
	path string
	err  error
}

// NewFilesystemError wraps a failure to read an upload file.
func NewFilesystemError(path string, err error) ClientError {
	return &filesystemError{path: path, err: err}
}

func (e *filesystemError) Error() string {
	return fmt.Sprintf("filesystem error: %s: %v", e.path, e.err)
}

func (e *filesystemError) Type() ErrorType { return FilesystemFailure }

func (e *filesystemError) Unwrap() error { return e.err }

// Path returns the file that could not be read.
func (e *filesystemError) Path() string { return e.path }

type interceptorError struct {
	message string
	stage   string
	err     error
}

// NewInterceptorError wraps an error returned by a request interceptor.
func NewInterceptorError(message, stage string, err error) ClientError {
	return &interceptorError{message: message, stage: stage, err: err}
}

func (e *interceptorError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("interceptor error (%s): %s: %v", e.stage, e.message, e.err)
	}
	return fmt.Sprintf("interceptor error (%s): %s", e.stage, e.message)
}

func (e *interceptorError) Type() ErrorType { return InterceptorFailure }

func (e *interceptorError) Unwrap() error { return e.err }

// IsErrorType reports whether err, or any error it wraps, is a ClientError of type t.
func IsErrorType(err error, t ErrorType) bool {
	for err != nil {
		var ce ClientError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Type() == t {
			return true
		}
		err = errors.Unwrap(ce)
	}
	return false
}

// IsSuccessStatus reports whether code is in the 2xx range.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
