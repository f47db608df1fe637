package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	testToken   = "tok-123456789"
	testDevice  = "d1"
	testCommand = "040100dc0400000ff000"
)

const mockLoginResponse = `{"status":0,"body":{"user":{"token":"tok-123456789","email":"user@example.com"}}}`

const mockDevicesResponse = `{"status":0,"body":{"devices":[{"idDevice":"d1","deviceName":"Living Room"}]}}`

// newTestServer routes the three API endpoints to handler functions
func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, h := range routes {
		mux.HandleFunc(pattern, h)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, NewClientWithURL(server.URL)
}

func TestNewClient(t *testing.T) {
	client := NewClient()

	if client.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", client.BaseURL, DefaultBaseURL)
	}

	if client.HTTPClient == nil {
		t.Error("HTTPClient should not be nil")
	}

	if client.Metrics != nil {
		t.Error("Metrics should be disabled by default")
	}
}

func TestNewClientWithURL(t *testing.T) {
	client := NewClientWithURL("http://127.0.0.1:8080/")

	if client.BaseURL != "http://127.0.0.1:8080" {
		t.Errorf("BaseURL = %s, want http://127.0.0.1:8080", client.BaseURL)
	}
}

func TestSetTimeout(t *testing.T) {
	client := NewClient()
	client.SetTimeout(5 * time.Second)

	hc, ok := client.HTTPClient.(*http.Client)
	if !ok {
		t.Fatalf("HTTPClient is %T, want *http.Client", client.HTTPClient)
	}
	if hc.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", hc.Timeout)
	}
}

type countingDoer struct {
	mu    sync.Mutex
	calls int
	next  Doer
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.next.Do(req)
}

func TestSetHTTPClient(t *testing.T) {
	server, client := newTestServer(t, map[string]http.HandlerFunc{
		loginPath: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(mockLoginResponse))
		},
	})

	doer := &countingDoer{next: server.Client()}
	client.SetHTTPClient(doer)

	if _, err := client.Authenticate(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if doer.calls != 1 {
		t.Errorf("injected transport calls = %d, want 1", doer.calls)
	}
}

func TestHeaders(t *testing.T) {
	h := Headers("")

	want := map[string]string{
		"content-type":    "application/json",
		"accept":          "application/json, text/plain, */*",
		"sec-fetch-site":  "cross-site",
		"accept-language": "it-IT,it;q=0.9",
		"sec-fetch-mode":  "cors",
		"origin":          "capacitor://sabianawm.cloud",
		"user-agent":      UserAgent,
		"sec-fetch-dest":  "empty",
	}
	for k, v := range want {
		got := h.Values(k)
		if len(got) != 1 || got[0] != v {
			t.Errorf("header %q = %v, want %q", k, got, v)
		}
	}

	if h.Get("auth") != "" {
		t.Error("unauthenticated headers must not carry auth")
	}

	h = Headers(testToken)
	if got := h.Values("auth"); len(got) != 1 || got[0] != testToken {
		t.Errorf("auth header = %v, want %q", got, testToken)
	}
	if h.Get("Authorization") != "" {
		t.Error("token must not be sent as Authorization")
	}
}

func TestAuthenticate_Success(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		loginPath: func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if r.Header.Get("Auth") != "" {
				t.Error("login must be sent without auth header")
			}
			if r.Header.Get("Origin") != "capacitor://sabianawm.cloud" {
				t.Errorf("origin = %q", r.Header.Get("Origin"))
			}

			var body loginRequest
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if body.Email != "user@example.com" || body.Password != "secret" {
				t.Errorf("body = %+v", body)
			}

			w.Write([]byte(mockLoginResponse))
		},
	})

	token, err := client.Authenticate(context.Background(), "user@example.com", "secret")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if token != testToken {
		t.Errorf("token = %q, want %q", token, testToken)
	}
}

func TestAuthenticate_HostFromBaseURL(t *testing.T) {
	var host string
	server, client := newTestServer(t, map[string]http.HandlerFunc{
		loginPath: func(w http.ResponseWriter, r *http.Request) {
			host = r.Host
			w.Write([]byte(mockLoginResponse))
		},
	})

	if _, err := client.Authenticate(context.Background(), "user@example.com", "secret"); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if want := strings.TrimPrefix(server.URL, "http://"); host != want {
		t.Errorf("Host = %q, want %q", host, want)
	}
}

func TestAuthenticate_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http 401", http.StatusUnauthorized, `{"status":0,"body":{"user":{"token":"x"}}}`},
		{"session invalid", http.StatusOK, `{"status":99,"errorMessage":"invalid credentials"}`},
		{"session expired", http.StatusOK, `{"status":103,"errorMessage":"session expired"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newTestServer(t, map[string]http.HandlerFunc{
				loginPath: func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				},
			})

			_, err := client.Authenticate(context.Background(), "user@example.com", "wrong")
			if !IsAuthError(err) {
				t.Errorf("Authenticate() error = %v, want auth error", err)
			}
		})
	}
}

func TestAuthenticate_MissingToken(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		loginPath: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"status":0,"body":{"user":{}}}`))
		},
	})

	_, err := client.Authenticate(context.Background(), "user@example.com", "secret")
	if !IsAPIError(err) {
		t.Errorf("Authenticate() error = %v, want API error", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.StatusCode != http.StatusCreated {
		t.Errorf("Authenticate() error = %+v, want status %d", err, http.StatusCreated)
	}
}

func TestListDevices_Success(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		devicesPath: func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("method = %s, want GET", r.Method)
			}
			if got := r.Header.Get("Auth"); got != testToken {
				t.Errorf("auth header = %q, want %q", got, testToken)
			}
			w.Write([]byte(mockDevicesResponse))
		},
	})

	devices, err := client.ListDevices(context.Background(), testToken)
	if err != nil {
		t.Fatalf("ListDevices() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("len(devices) = %d, want 1", len(devices))
	}
	if devices[0].ID != "d1" || devices[0].Name != "Living Room" {
		t.Errorf("device = %+v, want {d1 Living Room}", devices[0])
	}
}

func TestListDevices_Lenient(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Device
	}{
		{"missing devices", `{"status":0,"body":{}}`, nil},
		{"missing body", `{"status":0}`, nil},
		{"devices not a list", `{"status":0,"body":{"devices":"none"}}`, nil},
		{"null devices", `{"status":0,"body":{"devices":null}}`, nil},
		{
			"skips entries without id",
			`{"status":0,"body":{"devices":[{"deviceName":"Ghost"},{"idDevice":"d2","deviceName":"Bedroom"},"junk"]}}`,
			[]Device{{ID: "d2", Name: "Bedroom"}},
		},
		{
			"numeric id",
			`{"status":0,"body":{"devices":[{"idDevice":42,"deviceName":"Office"}]}}`,
			[]Device{{ID: "42", Name: "Office"}},
		},
		{
			"missing name",
			`{"status":0,"body":{"devices":[{"idDevice":"d3"}]}}`,
			[]Device{{ID: "d3"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newTestServer(t, map[string]http.HandlerFunc{
				devicesPath: func(w http.ResponseWriter, r *http.Request) {
					w.Write([]byte(tt.body))
				},
			})

			devices, err := client.ListDevices(context.Background(), testToken)
			if err != nil {
				t.Fatalf("ListDevices() error = %v", err)
			}
			if devices == nil {
				t.Fatal("ListDevices() returned nil slice, want empty")
			}
			if len(devices) != len(tt.want) {
				t.Fatalf("devices = %+v, want %+v", devices, tt.want)
			}
			for i := range tt.want {
				if devices[i] != tt.want[i] {
					t.Errorf("devices[%d] = %+v, want %+v", i, devices[i], tt.want[i])
				}
			}
		})
	}
}

func TestListDevices_SessionExpired(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		devicesPath: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":103,"errorMessage":"session expired"}`))
		},
	})

	_, err := client.ListDevices(context.Background(), testToken)
	if !IsAuthError(err) {
		t.Fatalf("ListDevices() error = %v, want auth error", err)
	}

	var e *Error
	if errors.As(err, &e) && e.Message != "session expired" {
		t.Errorf("message = %q, want %q", e.Message, "session expired")
	}
}

func TestListDevices_MissingToken(t *testing.T) {
	client := NewClientWithURL("http://127.0.0.1:1")
	doer := &countingDoer{next: http.DefaultClient}
	client.SetHTTPClient(doer)

	_, err := client.ListDevices(context.Background(), "")
	if !IsAuthError(err) {
		t.Errorf("ListDevices() error = %v, want auth error", err)
	}
	if doer.calls != 0 {
		t.Error("no request should be sent without a token")
	}
}

func TestSendCommand_Success(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		commandPath: func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("method = %s, want POST", r.Method)
			}
			if got := r.Header.Get("Auth"); got != testToken {
				t.Errorf("auth header = %q, want %q", got, testToken)
			}

			raw, _ := io.ReadAll(r.Body)
			var body map[string]any
			if err := json.Unmarshal(raw, &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}

			want := map[string]any{
				"deviceID": testDevice,
				"start":    float64(2304),
				"data":     testCommand,
				"restart":  false,
			}
			for k, v := range want {
				if body[k] != v {
					t.Errorf("body[%q] = %v, want %v", k, body[k], v)
				}
			}
			if len(body) != len(want) {
				t.Errorf("body has %d fields, want %d: %s", len(body), len(want), raw)
			}

			w.Write([]byte(`{"status":0,"body":{"result":true}}`))
		},
	})

	ok, err := client.SendCommand(context.Background(), testToken, testDevice, testCommand)
	if err != nil {
		t.Fatalf("SendCommand() error = %v", err)
	}
	if !ok {
		t.Error("SendCommand() = false, want true")
	}
}

func TestSendCommand_ResultDefaultsFalse(t *testing.T) {
	for _, body := range []string{
		`{"status":0,"body":{}}`,
		`{"status":0}`,
		`{"status":0,"body":{"result":"yes"}}`,
		`{"status":0,"body":{"result":false}}`,
	} {
		_, client := newTestServer(t, map[string]http.HandlerFunc{
			commandPath: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			},
		})

		ok, err := client.SendCommand(context.Background(), testToken, testDevice, testCommand)
		if err != nil {
			t.Fatalf("SendCommand() body %s error = %v", body, err)
		}
		if ok {
			t.Errorf("SendCommand() body %s = true, want false", body)
		}
	}
}

func TestSendCommand_APIError(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		commandPath: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":7,"errorMessage":"bad device"}`))
		},
	})

	_, err := client.SendCommand(context.Background(), testToken, "nope", testCommand)
	if !IsAPIError(err) {
		t.Fatalf("SendCommand() error = %v, want API error", err)
	}
	if !strings.Contains(err.Error(), "bad device") {
		t.Errorf("error %q should carry vendor message", err)
	}
}

func TestClient_ServerError(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		devicesPath: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		},
	})

	_, err := client.ListDevices(context.Background(), testToken)
	if !IsAPIError(err) {
		t.Fatalf("ListDevices() error = %v, want API error", err)
	}

	var e *Error
	errors.As(err, &e)
	if e.StatusCode != http.StatusBadGateway {
		t.Errorf("StatusCode = %d, want 502", e.StatusCode)
	}
	if !e.Retryable {
		t.Error("5xx should be retryable")
	}
}

func TestClient_MalformedJSON(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		devicesPath: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		},
	})

	_, err := client.ListDevices(context.Background(), testToken)
	if !IsAPIError(err) {
		t.Errorf("ListDevices() error = %v, want API error", err)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClientWithURL(url)
	_, err := client.Authenticate(context.Background(), "user@example.com", "secret")

	if !IsTransportError(err) {
		t.Errorf("Authenticate() error = %v, want transport error", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		devicesPath: func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.ListDevices(ctx, testToken)
	if !IsTransportError(err) {
		t.Fatalf("ListDevices() error = %v, want transport error", err)
	}

	var e *Error
	errors.As(err, &e)
	if e.Transport != TransportTimeout {
		t.Errorf("Transport = %v, want TransportTimeout", e.Transport)
	}
}

func TestClient_Canceled(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		devicesPath: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(mockDevicesResponse))
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ListDevices(ctx, testToken)
	if !IsTransportError(err) {
		t.Fatalf("ListDevices() error = %v, want transport error", err)
	}
	if IsRetryable(err) {
		t.Error("canceled requests should not be retryable")
	}
}

func TestClient_ConcurrentCalls(t *testing.T) {
	_, client := newTestServer(t, map[string]http.HandlerFunc{
		commandPath: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":0,"body":{"result":true}}`))
		},
	})

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.SendCommand(context.Background(), testToken, testDevice, testCommand); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent SendCommand() error = %v", err)
	}
}
