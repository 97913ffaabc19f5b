package utils

// SuccessResponse creates a standard success response envelope.
func SuccessResponse(message string, data interface{}) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "success",
		"message": message,
	}

	if data != nil {
		response["data"] = data
	}

	return response
}

// ErrorResponse creates a standard error response envelope.
func ErrorResponse(message string) map[string]interface{} {
	return map[string]interface{}{
		"status":  "error",
		"message": message,
	}
}
