// Command relay runs line-broadcast relay over TCP and a simple client for it.
//
// Every line received from a connected client is written to all other clients.
//
// Launch the server with defaults (localhost:8080):
//
//	relay serve
//
// Or with YAML configuration and overrides:
//
//	relay serve -config relay.yaml -addr :9000 -metrics localhost:9100
//
// Connect to the server from terminal:
//
//	relay dial -addr localhost:8080
//
// To inject version at build time:
//
//	go build -ldflags "-X main.version=1.2.3 -X main.commit=$(git rev-parse --short HEAD)" .
package main
