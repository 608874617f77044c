package errors

// ErrorCode identifies an application error category
type ErrorCode int

const (
	ErrorCode_UNKNOWN ErrorCode = iota
	ErrorCode_HTTP_OK
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_UNAUTHENTICATED
	ErrorCode_INVALID_SIGNATURE
	ErrorCode_INVALID_PAYLOAD
	ErrorCode_MEETING_NOT_FOUND
	ErrorCode_AGENT_NOT_FOUND
	ErrorCode_PROVISIONING_FAILED
	ErrorCode_WORKFLOW_ENQUEUE_FAILED
	ErrorCode_SUMMARY_FAILED
	ErrorCode_DB_QUERY_FAILED
	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED
)

var codeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:                    "UNKNOWN",
	ErrorCode_HTTP_OK:                    "OK",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_INVALID_SIGNATURE:          "INVALID_SIGNATURE",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_MEETING_NOT_FOUND:          "MEETING_NOT_FOUND",
	ErrorCode_AGENT_NOT_FOUND:            "AGENT_NOT_FOUND",
	ErrorCode_PROVISIONING_FAILED:        "PROVISIONING_FAILED",
	ErrorCode_WORKFLOW_ENQUEUE_FAILED:    "WORKFLOW_ENQUEUE_FAILED",
	ErrorCode_SUMMARY_FAILED:             "SUMMARY_FAILED",
	ErrorCode_DB_QUERY_FAILED:            "DB_QUERY_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
}

// String returns the symbolic name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
