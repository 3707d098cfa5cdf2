package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used at call sites.
const (
	CodeUnknown        = ErrorCode("UNKNOWN")
	CodeOK             = ErrorCode("OK")
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeNotImplemented = ErrCodeNotImplemented
	CodeDatabaseError  = ErrCodeDatabaseError
	CodeCacheError     = ErrCodeCacheError
	CodeStorageError   = ErrCodeExternalService
	CodeMessageQueue   = ErrCodeExternalService
	CodeChatNotFound   = ErrCodeChatNotFound
)

// Chat Module Error Codes
const (
	ErrCodeChatNotFound       ErrorCode = "CHAT_001"
	ErrCodeChatAlreadyExists  ErrorCode = "CHAT_002"
	ErrCodeMessageStoreFailed ErrorCode = "CHAT_003"
	ErrCodeSummaryFailed      ErrorCode = "CHAT_004"
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidSMILES ErrorCode = "MOL_001"
	ErrCodeProteinMissing        ErrorCode = "MOL_002"
)

// Prediction Module Error Codes
const (
	ErrCodePredictionFailed   ErrorCode = "PRED_001"
	ErrCodeScrapeFailed       ErrorCode = "PRED_002"
	ErrCodeReportParseFailed  ErrorCode = "PRED_003"
	ErrCodeScorerUnavailable  ErrorCode = "PRED_004"
	ErrCodeUnknownTask        ErrorCode = "PRED_005"
	ErrCodeNoPredictionResult ErrorCode = "PRED_006"
)

// LLM Module Error Codes
const (
	ErrCodeLLMUnavailable     ErrorCode = "LLM_001"
	ErrCodeLLMEmptyResponse   ErrorCode = "LLM_002"
	ErrCodePromptNotFound     ErrorCode = "LLM_003"
	ErrCodePromptRenderFailed ErrorCode = "LLM_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeChatNotFound:       http.StatusNotFound,
	ErrCodeChatAlreadyExists:  http.StatusConflict,
	ErrCodeMessageStoreFailed: http.StatusInternalServerError,
	ErrCodeSummaryFailed:      http.StatusInternalServerError,

	ErrCodeMoleculeInvalidSMILES: http.StatusBadRequest,
	ErrCodeProteinMissing:        http.StatusBadRequest,

	ErrCodePredictionFailed:   http.StatusInternalServerError,
	ErrCodeScrapeFailed:       http.StatusBadGateway,
	ErrCodeReportParseFailed:  http.StatusBadGateway,
	ErrCodeScorerUnavailable:  http.StatusServiceUnavailable,
	ErrCodeUnknownTask:        http.StatusBadRequest,
	ErrCodeNoPredictionResult: http.StatusBadGateway,

	ErrCodeLLMUnavailable:     http.StatusServiceUnavailable,
	ErrCodeLLMEmptyResponse:   http.StatusBadGateway,
	ErrCodePromptNotFound:     http.StatusInternalServerError,
	ErrCodePromptRenderFailed: http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeChatNotFound:       "Chat not found",
	ErrCodeChatAlreadyExists:  "chat already exists",
	ErrCodeMessageStoreFailed: "failed to store message",
	ErrCodeSummaryFailed:      "failed to generate summary",

	ErrCodeMoleculeInvalidSMILES: "invalid SMILES format",
	ErrCodeProteinMissing:        "protein sequence is required",

	ErrCodePredictionFailed:   "prediction failed",
	ErrCodeScrapeFailed:       "ADMET scrape failed",
	ErrCodeReportParseFailed:  "failed to parse prediction report",
	ErrCodeScorerUnavailable:  "binding affinity scorer unavailable",
	ErrCodeUnknownTask:        "unknown prediction task",
	ErrCodeNoPredictionResult: "predictor returned no results",

	ErrCodeLLMUnavailable:     "language model unavailable",
	ErrCodeLLMEmptyResponse:   "language model returned no text",
	ErrCodePromptNotFound:     "prompt template not found",
	ErrCodePromptRenderFailed: "failed to render prompt template",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
