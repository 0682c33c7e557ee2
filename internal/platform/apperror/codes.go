package apperror

import "net/http"

// ErrorCode is the general category of a failure.
type ErrorCode string

const (
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// BusinessCode is the specific reason within a category.
type BusinessCode string

const (
	BusinessCodeGeneral             BusinessCode = "GENERAL"
	BusinessCodeInvalidBody         BusinessCode = "INVALID_BODY"
	BusinessCodeInvalidTopic        BusinessCode = "INVALID_TOPIC"
	BusinessCodeInvalidAddress      BusinessCode = "INVALID_ADDRESS"
	BusinessCodeInvalidTheme        BusinessCode = "INVALID_THEME"
	BusinessCodeInvalidParameter    BusinessCode = "INVALID_PARAMETER"
	BusinessCodeForwardRuleNotFound BusinessCode = "FORWARD_RULE_NOT_FOUND"
	BusinessCodeSnapshotNotFound    BusinessCode = "SNAPSHOT_NOT_FOUND"
	BusinessCodeConnectionInUse     BusinessCode = "CONNECTION_IN_USE"
	BusinessCodeMissingToken        BusinessCode = "MISSING_TOKEN"
	BusinessCodeInvalidToken        BusinessCode = "INVALID_TOKEN"
)

// HTTPStatus returns the status normally used for code.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidationFailed:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
