// Package api
// Author: momentics
//
// Poller re-exports ioreactor's readiness-backend contract at the api
// layer, for callers that want to write or swap a platform poller
// backend without importing ioreactor's internals directly.

package api

import "github.com/momentics/fiberio/ioreactor"

// Poller is ioreactor.Poller re-exported: register a descriptor for
// edge-triggered readiness, wait for a batch of notifications, drop a
// registration.
type Poller = ioreactor.Poller

// ReadyEvent is ioreactor.ReadyEvent re-exported.
type ReadyEvent = ioreactor.ReadyEvent

// EventMask is ioreactor.EventMask re-exported.
type EventMask = ioreactor.EventMask

const (
	EventRead  = ioreactor.Read
	EventWrite = ioreactor.Write
	EventErr   = ioreactor.Err
	EventHup   = ioreactor.Hup
)
