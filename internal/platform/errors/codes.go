// Package errors provides structured error handling for transport boundaries.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Addressing errors
	CodeInvalidAddress Code = "INVALID_ADDRESS"

	// Surface errors
	CodeOperationNotSupported Code = "OPERATION_NOT_SUPPORTED"

	// Storage errors
	CodeStoreWriteFailed Code = "STORE_WRITE_FAILED"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - the caller named something that does not exist
	case CodeInvalidAddress:
		return codes.InvalidArgument

	// Unimplemented - the surface never performs this operation
	case CodeOperationNotSupported:
		return codes.Unimplemented

	default:
		return codes.Internal
	}
}
