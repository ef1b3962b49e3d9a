// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan

package cmd

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/dlbogdan/otgwctl/pkg/logger"
	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

// startEngine opens the configured connection and starts a dispatch manager
// on it. The returned stop func shuts the engine down and closes the
// transport.
func startEngine(ctx context.Context, log *logger.Logger) (*opentherm.Manager, string, func(), error) {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return nil, "", nil, err
	}

	ctrl := opentherm.NewController(conn, log)
	if secs := viper.GetInt("keepalive_seconds"); secs > 0 {
		ctrl.KeepAliveInterval = time.Duration(secs) * time.Second
	}
	if sp := viper.GetFloat64("default_setpoint"); sp > 0 {
		ctrl.DefaultSetpoint = sp
	}

	mgr := opentherm.NewManager(ctrl, log)
	if err := mgr.Start(ctx); err != nil {
		_ = conn.Close()
		return nil, "", nil, err
	}

	stop := func() {
		// Close the transport first: Stop waits on the reader loop, and
		// an idle WebSocket read only returns once the connection goes
		// away (serial reads have their own timeout).
		_ = conn.Close()
		mgr.Stop()
	}
	return mgr, connInfo, stop, nil
}
