// Package command routes operator commands from the API surface onto
// the device bus. Commands are admitted against the registry's current
// view of device presence before being published.
package command
