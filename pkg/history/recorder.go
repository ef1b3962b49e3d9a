// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Dan Bogdan

package history

import (
	"context"
	"time"

	"github.com/dlbogdan/otgwctl/pkg/logger"
	"github.com/dlbogdan/otgwctl/pkg/opentherm"
)

// Recorder periodically copies the controller's status records into a Store.
// A reading is archived when its raw word or its timestamp changed since the
// last poll, so an idle bus does not grow the database.
type Recorder struct {
	ctrl     *opentherm.Controller
	store    *Store
	log      *logger.Logger
	interval time.Duration

	seen map[byte]opentherm.StatusRecord
}

// NewRecorder creates a recorder polling ctrl every interval.
func NewRecorder(ctrl *opentherm.Controller, store *Store, log *logger.Logger, interval time.Duration) *Recorder {
	return &Recorder{
		ctrl:     ctrl,
		store:    store,
		log:      log,
		interval: interval,
		seen:     make(map[byte]opentherm.StatusRecord),
	}
}

// Run polls until the context is cancelled. Insert failures are logged and
// do not stop the recorder.
func (r *Recorder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.poll(ctx)
		}
	}
}

func (r *Recorder) poll(ctx context.Context) {
	for id, rec := range r.ctrl.Records() {
		prev, ok := r.seen[id]
		if ok && prev.Raw == rec.Raw && prev.Timestamp.Equal(rec.Timestamp) {
			continue
		}
		r.seen[id] = rec
		if err := r.store.RecordSample(ctx, id, rec); err != nil {
			r.log.Errorw("failed to archive sample", "data_id", id, "err", err)
		}
	}
}
