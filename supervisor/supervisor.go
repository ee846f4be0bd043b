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

// Package supervisor owns one watcher per configured account and ties
// their lifecycles together: all initial backfills must succeed before
// the supervisor considers itself started, and stopping waits for every
// watcher to acknowledge.
package supervisor

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/oneboxhq/onebox/imap"
	"github.com/oneboxhq/onebox/vector"
	"github.com/oneboxhq/onebox/watcher"
)

type Config struct {
	Accounts []watcher.Account
	Factory  imap.ClientFactory

	Folder string

	Store      watcher.Store
	Classifier watcher.Classifier
	Notifier   watcher.Notifier
	Index      vector.Index
	Embedder   vector.Embedder

	BackfillWindow time.Duration
	PollInterval   time.Duration
	PollWindow     time.Duration
}

type Supervisor struct {
	cfg Config

	mu       sync.Mutex
	watchers map[string]*watcher.Watcher
	started  bool
}

// New validates the configuration. No connections are made until Start.
func New(cfg *Config) (*Supervisor, error) {
	if len(cfg.Accounts) == 0 {
		return nil, errors.New("at least one account is required")
	}

	if cfg.Factory == nil {
		return nil, errors.New("client factory is required")
	}

	if cfg.Store == nil || cfg.Classifier == nil || cfg.Notifier == nil {
		return nil, errors.New("store, classifier, and notifier are required")
	}

	seen := map[string]bool{}
	for _, account := range cfg.Accounts {
		if account.Address == "" {
			return nil, errors.New("account with empty address")
		}

		if account.Auth == nil {
			return nil, fmt.Errorf("account %s has no credentials", account.Address)
		}

		if seen[account.Address] {
			return nil, fmt.Errorf("duplicate account %s", account.Address)
		}
		seen[account.Address] = true
	}

	return &Supervisor{
		cfg:      *cfg,
		watchers: map[string]*watcher.Watcher{},
	}, nil
}

// Start spawns one watcher per account and blocks until every initial
// backfill has finished. If any account fails, all watchers are stopped
// and the first error is returned.
func (s *Supervisor) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("already started")
	}
	s.started = true
	s.mu.Unlock()

	type result struct {
		address string
		err     error
	}

	results := make(chan result, len(s.cfg.Accounts))

	for _, account := range s.cfg.Accounts {
		done := make(chan error, 1)

		w, err := watcher.NewWatcher(&watcher.Config{
			Account:        account,
			Factory:        s.cfg.Factory,
			Folder:         s.cfg.Folder,
			Store:          s.cfg.Store,
			Classifier:     s.cfg.Classifier,
			Notifier:       s.cfg.Notifier,
			Index:          s.cfg.Index,
			Embedder:       s.cfg.Embedder,
			BackfillWindow: s.cfg.BackfillWindow,
			PollInterval:   s.cfg.PollInterval,
			PollWindow:     s.cfg.PollWindow,
			DoneChan:       done,
			OnDisconnect:   s.onDisconnect,
		})
		if err != nil {
			s.Stop()
			return fmt.Errorf("account %s: %w", account.Address, err)
		}

		s.mu.Lock()
		s.watchers[account.Address] = w
		s.mu.Unlock()

		address := account.Address
		go func() {
			results <- result{address: address, err: <-done}
		}()
	}

	var firstErr error
	for range s.cfg.Accounts {
		r := <-results
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("account %s: %w", r.address, r.err)
		}
	}

	if firstErr != nil {
		s.Stop()
		return firstErr
	}

	log.WithField("accounts", len(s.cfg.Accounts)).Info("supervisor_started")
	return nil
}

// Stop closes every active watcher and waits for them to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	watchers := make([]*watcher.Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		watchers = append(watchers, w)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(w *watcher.Watcher) {
			defer wg.Done()
			w.Close()
		}(w)
	}
	wg.Wait()

	log.Trace("supervisor_stopped")
}

// Status reports a snapshot per active account, ordered by address.
func (s *Supervisor) Status() []watcher.Status {
	s.mu.Lock()
	statuses := make([]watcher.Status, 0, len(s.watchers))
	for _, w := range s.watchers {
		statuses = append(statuses, w.Status())
	}
	s.mu.Unlock()

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Account < statuses[j].Account
	})

	return statuses
}

// onDisconnect prunes a watcher that left its run loop, so dead
// sessions drop out of the registry rather than lingering.
func (s *Supervisor) onDisconnect(account string, err error) {
	s.mu.Lock()
	delete(s.watchers, account)
	s.mu.Unlock()

	if err != nil {
		log.WithError(err).WithField("account", account).Error("account_session_ended")
	}
}
