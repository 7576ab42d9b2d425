// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads wabridge configuration.
//
// Precedence is defaults, then a YAML file parsed strictly, then WABRIDGE_*
// environment variables. The result is validated before it is returned.
package config
