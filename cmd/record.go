// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dlbogdan/otgwctl/pkg/history"
	"github.com/dlbogdan/otgwctl/pkg/logger"
	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

var (
	recordDBPath       string
	recordInterval     time.Duration
	recordSnapshotPath string
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Archive gateway telemetry to a SQLite database",
	Long: `Run headless and archive the decoded bus traffic.

Telemetry readings are written to a SQLite database whenever they change, at
the configured polling interval. On shutdown an optional snapshot of the full
session state can be written as a CBOR file for later inspection.

Runs until interrupted (Ctrl+C or SIGTERM).`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVar(&recordDBPath, "db", "otgw-history.db", "SQLite database file")
	recordCmd.Flags().DurationVar(&recordInterval, "interval", 5*time.Second, "Telemetry polling interval")
	recordCmd.Flags().StringVar(&recordSnapshotPath, "snapshot", "", "Write a CBOR session snapshot to this file on exit")
	rootCmd.AddCommand(recordCmd)
}

func runRecord(cmd *cobra.Command, args []string) error {
	log := logger.New(logLevel)
	defer log.Sync()

	store, err := history.Open(recordDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mgr, connInfo, stop, err := startEngine(ctx, log)
	if err != nil {
		return err
	}
	defer stop()

	log.Infow("recorder started", "connection", connInfo, "db", recordDBPath,
		"interval", recordInterval)
	if err := store.RecordEvent(ctx, "session", "recorder started"); err != nil {
		log.Warnw("failed to record session event", "err", err)
	}

	recorder := history.NewRecorder(mgr.Controller(), store, log, recordInterval)
	done := make(chan struct{})
	go func() {
		defer close(done)
		recorder.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infow("shutting down", "signal", sig.String())
	case err := <-mgr.Controller().Fatal():
		log.Errorw("transport failed", "err", err)
	}
	cancel()
	<-done

	if err := store.RecordEvent(context.Background(), "session", "recorder stopped"); err != nil {
		log.Warnw("failed to record session event", "err", err)
	}

	if recordSnapshotPath != "" {
		if err := writeSnapshot(mgr.Controller(), recordSnapshotPath); err != nil {
			return err
		}
		log.Infow("session snapshot written", "path", recordSnapshotPath)
	}
	return nil
}

func writeSnapshot(ctrl *opentherm.Controller, path string) error {
	data, err := opentherm.EncodeSnapshot(ctrl.Snapshot())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
