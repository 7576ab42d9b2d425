// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ports

import (
	"fmt"
	"sort"
	"sync"
)

var (
	driversMu sync.RWMutex
	drivers   = map[string]Dialer{}
)

// RegisterDriver makes a Dialer available by name. Registering the same name
// twice panics.
func RegisterDriver(name string, d Dialer) {
	driversMu.Lock()
	defer driversMu.Unlock()
	if d == nil {
		panic("ports: RegisterDriver dialer is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("ports: RegisterDriver called twice for driver " + name)
	}
	drivers[name] = d
}

// LookupDriver returns the Dialer registered under name.
func LookupDriver(name string) (Dialer, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("unknown transport driver %q (registered: %v)", name, driverNamesLocked())
	}
	return d, nil
}

// Drivers lists registered driver names.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	return driverNamesLocked()
}

func driverNamesLocked() []string {
	out := make([]string, 0, len(drivers))
	for n := range drivers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
