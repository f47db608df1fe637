// Package bridge serves a climate.Manager over a small local HTTP API so
// home-automation hosts can drive Sabiana units without talking to the
// vendor cloud themselves.
//
// # Routes
//
//	GET  /healthz                       liveness and device count
//	GET  /metrics                       Prometheus metrics
//	GET  /events                        websocket stream of command events
//	GET  /api/devices                   discovered devices
//	POST /api/devices/refresh           re-run discovery
//	GET  /api/devices/{id}              one device
//	PUT  /api/devices/{id}/climate      partial settings update
//	POST /api/devices/{id}/on           switch to cooling
//	POST /api/devices/{id}/off          switch off
//
// Errors are JSON objects with an "error" field. Cloud authentication
// failures map to 401, API failures and unacknowledged commands to 502,
// transport failures to 504, invalid settings to 400 and unknown devices
// to 404.
//
// # Usage Example
//
//	manager := climate.NewManager(client, registry, climate.WithRetry(2), climate.WithReauth(true))
//	srv, err := bridge.New(&bridge.Config{Listen: ":8088"}, manager, registry, prometheus.NewRegistry())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bridge
