// Package climate models Sabiana units as thermostats on the host side.
//
// The cloud API is write-only: the device state cannot be read back, so each
// Thermostat remembers the last settings the device acknowledged and builds
// every new command from them. A setter encodes the full next state, sends
// it, and commits it only when the cloud reports result=true.
//
// Credentials and session policy live here, not in package cloud. The
// Manager reads the token from a CredentialStore supplied by the host and can
// optionally retry transport failures with exponential backoff (WithRetry)
// or log in again once after an authentication error (WithReauth).
//
// # Usage Example
//
//	mgr := climate.NewManager(cloud.NewClient(), registry,
//	    climate.WithRetry(3),
//	    climate.WithReauth(true),
//	)
//
//	thermostats, err := mgr.Discover(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, t := range thermostats {
//	    if err := t.SetTemperature(ctx, 21); err != nil {
//	        log.Printf("%s: %v", t.Name(), err)
//	    }
//	}
package climate
