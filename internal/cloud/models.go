package cloud

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Device is a unit registered to the account. It is an immutable value taken
// from a single ListDevices result.
type Device struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Envelope is the vendor's standard response wrapper. Status 0 means success.
type Envelope struct {
	Status       int             `json:"status"`
	ErrorMessage *string         `json:"errorMessage,omitempty"`
	Body         json.RawMessage `json:"body,omitempty"`

	// HTTPStatus is the status code the envelope arrived with
	HTTPStatus int `json:"-"`
}

// loginRequest is the body of POST /users/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// commandRequest is the body of POST /devices/cmd
type commandRequest struct {
	DeviceID string `json:"deviceID"`
	Start    int    `json:"start"`
	Data     string `json:"data"`
	Restart  bool   `json:"restart"`
}

// loginBody is the envelope body of a successful login
type loginBody struct {
	User *struct {
		Token string `json:"token"`
	} `json:"user"`
}

// extractToken returns body.user.token. ok is false when the field is absent.
func extractToken(env *Envelope) (string, bool) {
	var body loginBody
	if len(env.Body) == 0 || json.Unmarshal(env.Body, &body) != nil {
		return "", false
	}
	if body.User == nil || body.User.Token == "" {
		return "", false
	}
	return body.User.Token, true
}

// extractDevices returns body.devices. Parsing is lenient: a missing or
// malformed list yields an empty slice and entries without an id are skipped.
func extractDevices(env *Envelope) []Device {
	devices := []Device{}

	var body struct {
		Devices json.RawMessage `json:"devices"`
	}
	if len(env.Body) == 0 || json.Unmarshal(env.Body, &body) != nil {
		return devices
	}

	var items []json.RawMessage
	if len(body.Devices) == 0 || json.Unmarshal(body.Devices, &items) != nil {
		return devices
	}

	for _, item := range items {
		var entry struct {
			IDDevice   json.RawMessage `json:"idDevice"`
			DeviceName json.RawMessage `json:"deviceName"`
		}
		if json.Unmarshal(item, &entry) != nil {
			continue
		}
		id := scalarString(entry.IDDevice)
		if id == "" {
			continue
		}
		devices = append(devices, Device{ID: id, Name: scalarString(entry.DeviceName)})
	}

	return devices
}

// extractResult returns body.result, defaulting to false.
func extractResult(env *Envelope) bool {
	var body struct {
		Result json.RawMessage `json:"result"`
	}
	if len(env.Body) == 0 || json.Unmarshal(env.Body, &body) != nil {
		return false
	}
	var result bool
	if json.Unmarshal(body.Result, &result) != nil {
		return false
	}
	return result
}

// scalarString renders a JSON string or number as a Go string. Anything else
// (null, objects, arrays) is treated as absent.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}
