// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Dan Bogdan

package cmd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dlbogdan/otgwctl/pkg/logger"
	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

// silentWSServer upgrades to WebSocket, delivers one frame, then holds the
// connection open without sending anything further.
func silentWSServer(t *testing.T, firstFrame string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	silence := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_ = ws.WriteMessage(websocket.TextMessage, []byte(firstFrame))
		<-silence
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(silence) })
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketShutdownUnblocksReader(t *testing.T) {
	wsURL := silentWSServer(t, "B40190266\r\n")

	conn, err := OpenWebSocketConnection(wsURL, "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketConnection: %v", err)
	}

	ctrl := opentherm.NewController(conn, logger.NewNop())
	ctrl.KeepAliveInterval = time.Hour
	mgr := opentherm.NewManager(ctrl, logger.NewNop())
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Wait for the delivered frame so the reader loop is provably parked
	// on the next read of an idle link.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := ctrl.Record(opentherm.IDBoilerWaterTemp); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("frame never reached the session state")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Engine shutdown order: transport first, then Stop. A WebSocket read
	// has no deadline of its own, so Stop would otherwise wait on a reader
	// that never wakes up.
	done := make(chan struct{})
	go func() {
		_ = conn.Close()
		mgr.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("engine shutdown blocked on an idle WebSocket reader")
	}
}
