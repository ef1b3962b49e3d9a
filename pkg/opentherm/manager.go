// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package opentherm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dlbogdan/otgwctl/pkg/logger"
)

// CommandStatus is the lifecycle state of a dispatched command.
type CommandStatus string

// Command lifecycle states.
const (
	StatusIdle            CommandStatus = "idle"
	StatusPending         CommandStatus = "pending"
	StatusSuccess         CommandStatus = "success"
	StatusTimeout         CommandStatus = "timeout"
	StatusError           CommandStatus = "error"
	StatusValidationError CommandStatus = "validation_error"
)

// CommandState tracks the last dispatch of one command code. Entries are
// overwritten on every dispatch and never deleted; the code set is small
// and fixed.
type CommandState struct {
	Status     CommandStatus
	Result     string
	ErrorCode  ResultCode
	LastUpdate time.Time
}

// Manager wraps the controller's blocking command methods as fire-and-forget
// background tasks. Callers dispatch a command, get an immediate launched/
// rejected answer, and poll CommandStatus for the outcome; nothing here ever
// blocks on the wire. This is the surface the heating logic and UI use;
// they do not talk to the Controller's command methods directly.
type Manager struct {
	ctrl *Controller
	log  *logger.Logger

	mu     sync.Mutex
	states map[string]CommandState
}

// NewManager creates a dispatch manager over ctrl.
func NewManager(ctrl *Controller, log *logger.Logger) *Manager {
	return &Manager{
		ctrl:   ctrl,
		log:    log,
		states: make(map[string]CommandState),
	}
}

// Start starts the underlying controller.
func (m *Manager) Start(ctx context.Context) error {
	return m.ctrl.Start(ctx)
}

// Stop stops the underlying controller and waits for in-flight command
// tasks to finish.
func (m *Manager) Stop() {
	m.ctrl.Stop()
}

// Controller exposes the underlying controller for its read-only getters.
func (m *Manager) Controller() *Controller {
	return m.ctrl
}

// CommandStatus returns the tracked state of a command code. ok is false for
// codes never dispatched.
func (m *Manager) CommandStatus(code string) (CommandState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.states[code]
	return st, ok
}

// setState overwrites the tracked state for a command code.
func (m *Manager) setState(code string, status CommandStatus, result string, errCode ResultCode) {
	m.mu.Lock()
	m.states[code] = CommandState{
		Status:     status,
		Result:     result,
		ErrorCode:  errCode,
		LastUpdate: time.Now(),
	}
	m.mu.Unlock()
	m.log.Debugw("command state updated", "command", code, "status", status)
}

// dispatch launches op as a background task tracked under code. It returns
// false, without launching, in two cases: a previous dispatch of the same
// code is still pending (the tracked state is left untouched), or the engine
// is not running. The second case additionally records an error state under
// code so that pollers see a settled outcome instead of a stale one.
func (m *Manager) dispatch(code string, op func(context.Context) CmdResult) bool {
	m.mu.Lock()
	if m.states[code].Status == StatusPending {
		m.mu.Unlock()
		m.log.Warnw("command already pending, ignoring", "command", code)
		return false
	}
	m.states[code] = CommandState{Status: StatusPending, LastUpdate: time.Now()}
	m.mu.Unlock()

	launched := m.ctrl.runTask(func(ctx context.Context) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Errorw("panic in command task", "command", code, "panic", r)
				m.setState(code, StatusError, fmt.Sprint(r), ResultUnknown)
			}
		}()
		m.record(code, op(ctx))
	})
	if !launched {
		m.log.Warnw("engine not running, command not dispatched", "command", code)
		m.setState(code, StatusError, "engine not running", ResultUnknown)
		return false
	}
	return true
}

// record normalizes a command result into the tracked state.
func (m *Manager) record(code string, res CmdResult) {
	switch res.Code {
	case ResultOK:
		m.setState(code, StatusSuccess, res.Data, ResultOK)
	case ResultTimeout:
		m.setState(code, StatusTimeout, res.Data, ResultTimeout)
	case ResultInvalid:
		m.setState(code, StatusValidationError, res.Data, ResultInvalid)
	default:
		m.setState(code, StatusError, res.Data, res.Code)
	}
}

// TakeControl launches a takeover, tracked as "TCtrl".
func (m *Manager) TakeControl() bool {
	return m.dispatch("TCtrl", m.ctrl.TakeControl)
}

// RelinquishControl launches a hand-back to the thermostat, tracked as "CS0".
func (m *Manager) RelinquishControl() bool {
	return m.dispatch("CS0", m.ctrl.RelinquishControl)
}

// SetControlSetpoint launches a CS command.
func (m *Manager) SetControlSetpoint(temp float64) bool {
	return m.dispatch("CS", func(ctx context.Context) CmdResult {
		return m.ctrl.SetControlSetpoint(ctx, temp)
	})
}

// SetDHWSetpoint launches an SW command.
func (m *Manager) SetDHWSetpoint(temp float64) bool {
	return m.dispatch("SW", func(ctx context.Context) CmdResult {
		return m.ctrl.SetDHWSetpoint(ctx, temp)
	})
}

// SetMaxModulation launches an MM command.
func (m *Manager) SetMaxModulation(percentage float64) bool {
	return m.dispatch("MM", func(ctx context.Context) CmdResult {
		return m.ctrl.SetMaxModulation(ctx, percentage)
	})
}

// SetCentralHeating launches a CH command.
func (m *Manager) SetCentralHeating(enabled bool) bool {
	return m.dispatch("CH", func(ctx context.Context) CmdResult {
		return m.ctrl.SetCentralHeating(ctx, enabled)
	})
}

// SetMaxCHSetpoint launches an SH command.
func (m *Manager) SetMaxCHSetpoint(temp float64) bool {
	return m.dispatch("SH", func(ctx context.Context) CmdResult {
		return m.ctrl.SetMaxCHSetpoint(ctx, temp)
	})
}

// SetControlSetpoint2 launches a C2 command.
func (m *Manager) SetControlSetpoint2(temp float64) bool {
	return m.dispatch("C2", func(ctx context.Context) CmdResult {
		return m.ctrl.SetControlSetpoint2(ctx, temp)
	})
}

// SetCentralHeating2 launches an H2 command.
func (m *Manager) SetCentralHeating2(enabled bool) bool {
	return m.dispatch("H2", func(ctx context.Context) CmdResult {
		return m.ctrl.SetCentralHeating2(ctx, enabled)
	})
}

// SetVentilationSetpoint launches a VS command.
func (m *Manager) SetVentilationSetpoint(percentage int) bool {
	return m.dispatch("VS", func(ctx context.Context) CmdResult {
		return m.ctrl.SetVentilationSetpoint(ctx, percentage)
	})
}

// ResetBoilerCounter launches an RS command.
func (m *Manager) ResetBoilerCounter(counter string) bool {
	return m.dispatch("RS", func(ctx context.Context) CmdResult {
		return m.ctrl.ResetBoilerCounter(ctx, counter)
	})
}

// SetHotWaterMode launches an HW command.
func (m *Manager) SetHotWaterMode(state string) bool {
	return m.dispatch("HW", func(ctx context.Context) CmdResult {
		return m.ctrl.SetHotWaterMode(ctx, state)
	})
}

// SetTemporaryRoomSetpointOverride launches a TT command.
func (m *Manager) SetTemporaryRoomSetpointOverride(temp float64) bool {
	return m.dispatch("TT", func(ctx context.Context) CmdResult {
		return m.ctrl.SetTemporaryRoomSetpointOverride(ctx, temp)
	})
}

// SetConstantRoomSetpointOverride launches a TC command.
func (m *Manager) SetConstantRoomSetpointOverride(temp float64) bool {
	return m.dispatch("TC", func(ctx context.Context) CmdResult {
		return m.ctrl.SetConstantRoomSetpointOverride(ctx, temp)
	})
}

// SetThermostatClock launches an SC command.
func (m *Manager) SetThermostatClock(timeStr string, day int) bool {
	return m.dispatch("SC", func(ctx context.Context) CmdResult {
		return m.ctrl.SetThermostatClock(ctx, timeStr, day)
	})
}

// RequestPriorityMessage launches a PM command.
func (m *Manager) RequestPriorityMessage(dataID int) bool {
	return m.dispatch("PM", func(ctx context.Context) CmdResult {
		return m.ctrl.RequestPriorityMessage(ctx, dataID)
	})
}
