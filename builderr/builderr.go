// Package builderr defines the CreateError taxonomy: the set of failures a
// builder can produce while assembling a Buffer, an MPIType, or a Call.
// Unlike TypeCheckError (see package typecheck), a CreateError means the
// call could not even be constructed; nothing was checked.
package builderr

import "fmt"

// Error is a CreateError: a closed taxonomy of builder failures.
type Error interface {
	error
	isCreateError()
}

// MPIError reports that a call into the messaging library itself failed.
type MPIError struct {
	FunctionName string
	Message      string
}

func (e MPIError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.FunctionName, e.Message)
}

func (MPIError) isCreateError() {}

// TypeARTError reports that the allocation registry could not answer a
// lookup (e.g. the pointer was never registered).
type TypeARTError struct {
	Message string
}

func (e TypeARTError) Error() string {
	return fmt.Sprintf("internal runtime error (%s)", e.Message)
}

func (TypeARTError) isCreateError() {}

// InvalidArgument reports a malformed argument discovered while building,
// such as a type id the registry has never heard of.
type InvalidArgument struct {
	Message string
}

func (e InvalidArgument) Error() string {
	return e.Message
}

func (InvalidArgument) isCreateError() {}

// SourceLocationError reports that the caller's address could not be
// resolved to a source location.
type SourceLocationError struct {
	Message string
}

func (e SourceLocationError) Error() string {
	return e.Message
}

func (SourceLocationError) isCreateError() {}
