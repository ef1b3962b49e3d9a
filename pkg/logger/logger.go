// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

// Package logger provides the leveled structured logger used across otgwctl.
package logger

// Log levels accepted by New.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)
