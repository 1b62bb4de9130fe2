// Package application wires the resolved configuration into running
// components: data-key storage, the capsule manager identity, the HTTP API
// and the server with its transport security. It keeps the main package
// focused on resolving configuration and orchestrating shutdown.
package application
