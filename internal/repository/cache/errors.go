package cache

// ErrorHandler carries the HTTP status a cache miss or decode failure maps to.
type ErrorHandler struct {
	Err        error
	StatusCode int
}

func NewErrorHandler(err error, status int) ErrorHandler {
	return ErrorHandler{Err: err, StatusCode: status}
}

func (e ErrorHandler) Error() string { return e.Err.Error() }

func (e ErrorHandler) Unwrap() error { return e.Err }
