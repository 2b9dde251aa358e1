package apperr

import "net/http"

// HTTPStatus maps a kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthenticated, KindInvalidCredential, KindExpiredCredential, KindMalformedCredential:
		return http.StatusUnauthorized
	case KindValidationFailed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindUnexpected:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Response is the JSON body written for every failed request.
type Response struct {
	Error   Kind   `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// ToResponse renders err for a client in lang. The internal cause is never
// included.
func ToResponse(err error, lang string) (int, Response) {
	e := From(err)
	return HTTPStatus(e.Kind), Response{
		Error:   e.Kind,
		Message: Message(e.Code, lang),
		Field:   e.Field,
	}
}
