package main

import "forge/internal/forgelog"

// AppContext bundles the process-lifetime services every subcommand shares.
type AppContext struct {
	Log *forgelog.Logger
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) *forgelog.Logger {
	if a == nil || a.Log == nil {
		return forgelog.Noop()
	}
	return a.Log.With("component", component)
}
