// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package auth defines the persisted authentication state of a session and
// the Store abstraction used to load and save it.
//
// A Record is split into named documents before it reaches a backend: one
// document for the credentials ("creds") and one per signal key
// ("<category>-<escaped id>"). Binary leaves are encoded with the
// {"type":"Buffer","data":"<base64>"} envelope so any JSON document store
// round-trips them losslessly.
package auth
