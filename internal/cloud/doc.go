// Package cloud provides an HTTP client for the Sabiana cloud API.
//
// The client covers the three calls the vendor's mobile app makes: login,
// device listing and command delivery. It mimics the app's request headers
// because the backend rejects anything that does not look like it.
//
// # Usage Example
//
//	client := cloud.NewClient()
//
//	token, err := client.Authenticate(ctx, "user@example.com", password)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	devices, err := client.ListDevices(ctx, token)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ok, err := client.SendCommand(ctx, token, devices[0].ID, "040100dc0400000ff000")
//
// # Response Validation
//
// Every response passes through ValidateResponse:
//   - HTTP 401 is an authentication error, any other status >= 400 an API error
//   - the body must be a JSON object (the response envelope)
//   - envelope status 99 or 103 is an authentication error, any other
//     non-zero status an API error carrying the vendor's errorMessage
//
// # Error Handling
//
// All errors are *Error values tagged with a Kind:
//
//	if cloud.IsAuthError(err) {
//	    // log in again
//	}
//	if cloud.IsTransportError(err) {
//	    // network problem, the caller may retry
//	}
//
// The client never retries, refreshes tokens or backs off on its own. Those
// policies belong to the caller (see package climate).
package cloud
