package errors

import (
	"errors"

	"github.com/louisbranch/logsprovider/internal/platform/i18n/catalog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// HandleError converts a domain error to a gRPC status whose localized
// message is formatted from the catalog for locale. Locale may be an
// Accept-Language list; empty or unknown locales resolve to DefaultLocale.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		c := catalog.Default().For(locale)
		return appErr.ToGRPCStatus(c.Locale(), c.Format(string(appErr.Code), appErr.Metadata))
	}
	return status.Error(codes.Internal, "an unexpected error occurred")
}

// GetCode extracts the error code from any error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
