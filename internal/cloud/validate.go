package cloud

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// ValidateResponse runs the ordered validation pipeline on a raw response:
//
//  1. HTTP status >= 400: 401 is KindAuth, anything else KindAPI with the status.
//  2. The body is decoded as an Envelope; a decode failure is KindAPI.
//  3. Envelope status != 0: 99 and 103 are KindAuth, anything else KindAPI,
//     both carrying errorMessage (default "Unknown API error").
//
// The body is only inspected once the HTTP status has passed, so a 401 is an
// authentication error whatever it contains.
func ValidateResponse(statusCode int, body []byte) (*Envelope, error) {
	if err := validateHTTPStatus(statusCode); err != nil {
		return nil, err
	}

	env, err := decodeEnvelope(statusCode, body)
	if err != nil {
		return nil, err
	}

	if err := validateAPIStatus(statusCode, env); err != nil {
		return nil, err
	}

	return env, nil
}

func validateHTTPStatus(statusCode int) error {
	if statusCode < http.StatusBadRequest {
		return nil
	}
	if statusCode == http.StatusUnauthorized {
		return NewAuthError("Authentication error", statusCode, 0)
	}
	return NewHTTPError(statusCode)
}

func decodeEnvelope(statusCode int, body []byte) (*Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, NewParseError("empty response body", statusCode, nil)
	}
	if body[0] != '{' {
		return nil, NewParseError("response is not a JSON object", statusCode, nil)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, NewParseError("failed to parse JSON response", statusCode, err)
	}
	env.HTTPStatus = statusCode
	return &env, nil
}

func validateAPIStatus(statusCode int, env *Envelope) error {
	if env.Status == 0 {
		return nil
	}

	message := DefaultAPIErrorMessage
	if env.ErrorMessage != nil {
		message = *env.ErrorMessage
	}

	if isAuthStatus(env.Status) {
		return NewAuthError(message, statusCode, env.Status)
	}
	return NewAPIError(message, statusCode, env.Status)
}

func isAuthStatus(status int) bool {
	return status == StatusSessionInvalid || status == StatusSessionExpired
}
