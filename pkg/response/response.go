package response

// Response represents a standard API response format
type Response struct {
	Status     string      `json:"status"`      // "success" or "error"
	StatusCode int         `json:"status_code"` // HTTP status code
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Errors     []string    `json:"errors,omitempty"`
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// SuccessMessage returns a success response carrying a user-visible
// notice alongside the data.
func SuccessMessage(statusCode int, message string, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// ValidationErrors returns an error response carrying the full list of
// user-correctable messages for a rejected form submission.
func ValidationErrors(statusCode int, errs []string) Response {
	r := Response{
		Status:     "error",
		StatusCode: statusCode,
		Errors:     errs,
	}
	if len(errs) > 0 {
		r.Error = errs[0]
	}
	return r
}
