package constants

// Envelope status values
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Standard Response Field Keys
const (
	ResponseFieldStatus  = "status"
	ResponseFieldData    = "data"
	ResponseFieldMessage = "message"
	ResponseFieldResults = "results"
	ResponseFieldTotal   = "total"
	ResponseFieldPage    = "page"
	ResponseFieldToken   = "token"
	ResponseFieldError   = "error"
	ResponseFieldCode    = "code"
)

// EnvelopeStatus returns "fail" for client errors and "error" for everything else.
func EnvelopeStatus(httpStatus int) string {
	if httpStatus >= 400 && httpStatus < 500 {
		return StatusFail
	}
	return StatusError
}

// Response Format Functions
func BuildListResponse(key string, items any, results int, total int64, page int) map[string]any {
	return map[string]any{
		ResponseFieldStatus:  StatusSuccess,
		ResponseFieldResults: results,
		ResponseFieldTotal:   total,
		ResponseFieldPage:    page,
		ResponseFieldData:    map[string]any{key: items},
	}
}

func BuildEntityResponse(key string, entity any) map[string]any {
	return map[string]any{
		ResponseFieldStatus: StatusSuccess,
		ResponseFieldData:   map[string]any{key: entity},
	}
}

func BuildDataResponse(data any) map[string]any {
	return map[string]any{
		ResponseFieldStatus: StatusSuccess,
		ResponseFieldData:   data,
	}
}

func BuildTokenResponse(token string, user any) map[string]any {
	return map[string]any{
		ResponseFieldStatus: StatusSuccess,
		ResponseFieldToken:  token,
		ResponseFieldData:   map[string]any{"user": user},
	}
}

func BuildErrorResponse(httpStatus int, message string) map[string]any {
	return map[string]any{
		ResponseFieldStatus:  EnvelopeStatus(httpStatus),
		ResponseFieldMessage: message,
	}
}

func BuildSuccessResponse(message string) map[string]any {
	return map[string]any{
		ResponseFieldStatus:  StatusSuccess,
		ResponseFieldMessage: message,
	}
}
