/*
 * Onebox - Copyright (C) 2025 Onebox Authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License version 2, and only
 * version 2 as published by the Free Software Foundation.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 59 Temple Place, Suite 330, Boston, MA  02111-1307  USA
 */

package watcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goimap "github.com/emersion/go-imap"
	log "github.com/sirupsen/logrus"

	"github.com/oneboxhq/onebox/email"
	"github.com/oneboxhq/onebox/imap"
)

const (
	DefaultBackfillWindow = 30 * 24 * time.Hour
	DefaultPollInterval   = 60 * time.Second
	DefaultPollWindow     = time.Minute

	fetchBufferSize = 16
)

// NewWatcher validates the configuration and starts the watcher's run
// loop. The initial backfill result is delivered on cfg.DoneChan.
func NewWatcher(cfg *Config) (*Watcher, error) {
	if cfg.Account.Address == "" {
		return nil, errors.New("account address is required")
	}

	if cfg.Factory == nil {
		return nil, errors.New("client factory is required")
	}

	if cfg.Store == nil || cfg.Classifier == nil || cfg.Notifier == nil {
		return nil, errors.New("store, classifier, and notifier are required")
	}

	section, err := goimap.ParseBodySectionName(goimap.FetchRFC822)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cfg:      *cfg,
		folder:   cfg.Folder,
		section:  section,
		wantQuit: make(chan struct{}),
		hasQuit:  make(chan struct{}),
		state:    StateDisconnected,
	}

	if w.folder == "" {
		w.folder = "INBOX"
	}

	if w.cfg.BackfillWindow <= 0 {
		w.cfg.BackfillWindow = DefaultBackfillWindow
	}

	if w.cfg.PollInterval <= 0 {
		w.cfg.PollInterval = DefaultPollInterval
	}

	if w.cfg.PollWindow <= 0 {
		w.cfg.PollWindow = DefaultPollWindow
	}

	go w.run()
	return w, nil
}

// Close asks the watcher to stop and waits until its run loop has
// exited. A sync in flight finishes its current message first.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() { close(w.wantQuit) })
	<-w.hasQuit
}

// Done is closed once the run loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.hasQuit
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Status{
		Account:   w.cfg.Account.Address,
		State:     w.state,
		Watermark: w.watermark,
		Processed: w.processed,
		LastSync:  w.lastSync,
	}

	if w.lastError != nil {
		s.LastError = w.lastError.Error()
	}

	return s
}

func (w *Watcher) setState(state State) {
	w.mu.Lock()
	old := w.state
	w.state = state
	w.mu.Unlock()

	log.WithFields(log.Fields{
		"account":   w.cfg.Account.Address,
		"old_state": old,
		"new_state": state,
	}).Trace("watcher_state_change")
}

func (w *Watcher) setError(err error) {
	w.mu.Lock()
	w.lastError = err
	w.mu.Unlock()
}

// reportDone delivers the backfill result exactly once.
func (w *Watcher) reportDone(err error) {
	w.mu.Lock()
	sent := w.doneSent
	w.doneSent = true
	w.mu.Unlock()

	if sent || w.cfg.DoneChan == nil {
		return
	}

	w.cfg.DoneChan <- err
}

func (w *Watcher) run() {
	var runErr error

	defer func() {
		w.setState(StateDisconnected)
		w.reportDone(runErr)

		// OnDisconnect fires before hasQuit so that a caller blocked in
		// Close observes the disconnect callback as already delivered.
		if w.cfg.OnDisconnect != nil {
			w.cfg.OnDisconnect(w.cfg.Account.Address, runErr)
		}

		close(w.hasQuit)
	}()

	w.setState(StateConnecting)

	c, err := w.cfg.Factory.NewClient(&imap.ClientConfig{
		HostPort:  w.cfg.Account.HostPort,
		Auth:      w.cfg.Account.Auth,
		TLS:       w.cfg.Account.TLS,
		TLSConfig: w.cfg.Account.TLSConfig,
		Debug:     w.cfg.Account.Debug,
	})
	if err != nil {
		runErr = fmt.Errorf("connecting %s: %w", w.cfg.Account.Address, err)
		w.setError(runErr)
		return
	}

	w.client = c

	defer func() {
		if err := w.client.Logout(); err != nil {
			log.WithError(err).WithField("account", w.cfg.Account.Address).Warn("logout_failed")
		}
	}()

	if _, err := c.Select(w.folder, false); err != nil {
		runErr = fmt.Errorf("selecting %s: %w", w.folder, err)
		w.setError(runErr)
		return
	}

	w.setState(StateSyncingInitial)

	if err := w.sync(time.Now().Add(-w.cfg.BackfillWindow)); err != nil {
		runErr = fmt.Errorf("initial sync: %w", err)
		w.setError(runErr)
		return
	}

	w.reportDone(nil)
	w.setState(StateWatching)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.wantQuit:
			return
		case <-w.client.LoggedOut():
			runErr = fmt.Errorf("connection lost for %s", w.cfg.Account.Address)
			w.setError(runErr)
			log.WithField("account", w.cfg.Account.Address).Error("watcher_connection_lost")
			return
		case <-ticker.C:
			w.setState(StateSyncingIncremental)
			if err := w.sync(time.Now().Add(-w.cfg.PollWindow)); err != nil {
				w.setError(err)
				log.WithError(err).WithField("account", w.cfg.Account.Address).Warn("incremental_sync_failed")
			}
			w.setState(StateWatching)
		}
	}
}

// sync searches the folder for messages received since the given time
// (bounded below by the UID watermark) and pumps each one through the
// pipeline. A failing message is logged and skipped; the sync itself
// only fails when the search or fetch does.
func (w *Watcher) sync(since time.Time) error {
	criteria := &goimap.SearchCriteria{
		// IMAP SINCE has day granularity; the watermark does the
		// fine-grained dedup below.
		Since: since.Truncate(24 * time.Hour),
	}

	w.mu.Lock()
	watermark := w.watermark
	w.mu.Unlock()

	if watermark > 0 {
		uids := new(goimap.SeqSet)
		uids.AddRange(watermark+1, 0)
		criteria.Uid = uids
	}

	uids, err := w.client.UidSearch(criteria)
	if err != nil {
		return fmt.Errorf("uid search: %w", err)
	}

	fresh := uids[:0]
	for _, uid := range uids {
		if uid > watermark {
			fresh = append(fresh, uid)
		}
	}

	w.mu.Lock()
	w.lastSync = time.Now()
	w.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}

	log.WithFields(log.Fields{
		"account": w.cfg.Account.Address,
		"folder":  w.folder,
		"count":   len(fresh),
	}).Debug("watcher_sync_fetch")

	seqset := new(goimap.SeqSet)
	seqset.AddNum(fresh...)

	items := []goimap.FetchItem{
		goimap.FetchUid,
		goimap.FetchFlags,
		goimap.FetchInternalDate,
		goimap.FetchRFC822Size,
		w.section.FetchItem(),
	}

	ch := make(chan *goimap.Message, fetchBufferSize)
	done := make(chan error, 1)

	go func() {
		done <- w.client.UidFetch(seqset, items, ch)
	}()

	for imsg := range ch {
		w.process(imsg)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("uid fetch: %w", err)
	}

	return nil
}

// process runs one fetched message through normalize, store, classify,
// notify. Failures are isolated to the message.
func (w *Watcher) process(imsg *goimap.Message) {
	defer w.advance(imsg.Uid)

	logger := log.WithFields(log.Fields{
		"account": w.cfg.Account.Address,
		"uid":     imsg.Uid,
	})

	body := imsg.GetBody(w.section)
	if body == nil {
		logger.Warn("message_missing_body")
		return
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		logger.WithError(err).Warn("message_read_failed")
		return
	}

	attrs := email.Attributes{
		UID:          imsg.Uid,
		SeqNum:       imsg.SeqNum,
		Flags:        imsg.Flags,
		Size:         imsg.Size,
		InternalDate: imsg.InternalDate,
	}

	msg := email.Normalize(w.cfg.Account.Address, w.folder, attrs, raw)

	ctx := context.Background()

	if err := w.cfg.Store.Put(ctx, msg); err != nil {
		logger.WithError(err).Error("message_store_failed")
		return
	}

	msg.Category = w.cfg.Classifier.Categorize(ctx, msg)

	if err := w.cfg.Store.PatchCategory(ctx, msg.ID, msg.Category); err != nil {
		logger.WithError(err).Error("category_patch_failed")
	}

	w.upsertVector(ctx, msg)

	w.cfg.Notifier.Dispatch(ctx, msg)

	w.mu.Lock()
	w.processed++
	w.mu.Unlock()

	logger.WithField("category", msg.Category).Debug("message_processed")
}

// upsertVector indexes the message body for reply suggestion. Failure
// never fails the message.
func (w *Watcher) upsertVector(ctx context.Context, msg *email.Message) {
	if w.cfg.Index == nil || w.cfg.Embedder == nil || msg.TextBody == "" {
		return
	}

	embedding, err := w.cfg.Embedder.Embed(ctx, msg.TextBody)
	if err != nil {
		log.WithError(err).WithField("id", msg.ID).Warn("vector_embed_failed")
		return
	}

	if err := w.cfg.Index.Upsert(ctx, msg.ID, embedding, msg.TextBody); err != nil {
		log.WithError(err).WithField("id", msg.ID).Warn("vector_upsert_failed")
	}
}

func (w *Watcher) advance(uid uint32) {
	w.mu.Lock()
	if uid > w.watermark {
		w.watermark = uid
	}
	w.mu.Unlock()
}
