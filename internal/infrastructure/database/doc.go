// Package database provides the SQLite connection used for the
// presence transition log, with embedded schema migrations applied at
// startup. SQLite keeps the bridge dependency-free at deploy time: a
// single file holds the full history.
package database
