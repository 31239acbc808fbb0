// Package history stores and serves the presence transition log: every
// connect, disconnect, and timeout the bridge observes, queryable per
// device through the REST API.
package history
