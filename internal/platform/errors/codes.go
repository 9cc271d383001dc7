package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidBody represents an unparseable request payload.
	CodeInvalidBody Code = "INVALID_BODY"

	// Identity errors
	CodeDuplicateIdentity   Code = "DUPLICATE_IDENTITY"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeUserEmptyUsername   Code = "USER_EMPTY_USERNAME"
	CodeUserInvalidUsername Code = "USER_INVALID_USERNAME"
	CodeUserInvalidEmail    Code = "USER_INVALID_EMAIL"
	CodeUserWeakPassword    Code = "USER_WEAK_PASSWORD"

	// Token errors
	CodeTokenInvalid Code = "TOKEN_INVALID"
	CodeTokenExpired Code = "TOKEN_EXPIRED"
	CodeTokenReused  Code = "TOKEN_REUSED"
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Task errors
	CodeTaskEmptyTitle         Code = "TASK_EMPTY_TITLE"
	CodeTaskTitleTooLong       Code = "TASK_TITLE_TOO_LONG"
	CodeTaskDescriptionTooLong Code = "TASK_DESCRIPTION_TOO_LONG"
	CodeTaskInvalidPriority    Code = "TASK_INVALID_PRIORITY"
	CodeTaskInvalidRecurrence  Code = "TASK_INVALID_RECURRENCE"

	// Share errors
	CodeShareInvalidPermission Code = "SHARE_INVALID_PERMISSION"
	CodeShareSelfShare         Code = "SHARE_SELF_SHARE"
	CodeShareDuplicate         Code = "SHARE_DUPLICATE"
	CodeShareUnknownUser       Code = "SHARE_UNKNOWN_USER"

	// Rate limiting
	CodeTooManyAttempts Code = "TOO_MANY_ATTEMPTS"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
	CodeConflict Code = "CONFLICT"
	CodeInternal Code = "INTERNAL"
)

// HTTPStatus maps domain codes to HTTP response status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, malformed input
	case CodeInvalidBody,
		CodeUserEmptyUsername,
		CodeUserInvalidUsername,
		CodeUserInvalidEmail,
		CodeUserWeakPassword,
		CodeTaskEmptyTitle,
		CodeTaskTitleTooLong,
		CodeTaskDescriptionTooLong,
		CodeTaskInvalidPriority,
		CodeTaskInvalidRecurrence,
		CodeShareInvalidPermission,
		CodeShareSelfShare,
		CodeShareUnknownUser:
		return http.StatusBadRequest

	// Unauthorized - credential and token failures
	case CodeInvalidCredentials,
		CodeTokenInvalid,
		CodeTokenExpired,
		CodeTokenReused,
		CodeUnauthorized:
		return http.StatusUnauthorized

	// Not found - missing records and ownership mismatches alike
	case CodeNotFound:
		return http.StatusNotFound

	// Conflict - uniqueness violations
	case CodeDuplicateIdentity,
		CodeShareDuplicate,
		CodeConflict:
		return http.StatusConflict

	case CodeTooManyAttempts:
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}
