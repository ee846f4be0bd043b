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

package supervisor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/oneboxhq/onebox/email"
	"github.com/oneboxhq/onebox/imap"
	"github.com/oneboxhq/onebox/imap/client"
	"github.com/oneboxhq/onebox/internal"
	"github.com/oneboxhq/onebox/supervisor"
	"github.com/oneboxhq/onebox/watcher"
)

type nopStore struct {
	mu   sync.Mutex
	puts int
}

func (s *nopStore) Put(context.Context, *email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	return nil
}

func (s *nopStore) PatchCategory(context.Context, string, email.Category) error {
	return nil
}

type nopClassifier struct{}

func (nopClassifier) Categorize(context.Context, *email.Message) email.Category {
	return email.DefaultCategory
}

type nopNotifier struct{}

func (nopNotifier) Dispatch(context.Context, *email.Message) {}

func account(address, hostPort string) watcher.Account {
	return watcher.Account{
		Address:  address,
		HostPort: hostPort,
		Auth:     imap.NewNormalAuthenticator("username", "password"),
	}
}

func TestSupervisorValidation(t *testing.T) {
	base := supervisor.Config{
		Factory:    &client.Factory{},
		Store:      &nopStore{},
		Classifier: nopClassifier{},
		Notifier:   nopNotifier{},
	}

	_, err := supervisor.New(&base)
	assert.Error(t, err) // no accounts

	cfg := base
	cfg.Accounts = []watcher.Account{{Address: "a@b.c"}}
	_, err = supervisor.New(&cfg)
	assert.Error(t, err) // no credentials

	cfg = base
	cfg.Accounts = []watcher.Account{
		account("a@b.c", "localhost:143"),
		account("a@b.c", "localhost:143"),
	}
	_, err = supervisor.New(&cfg)
	assert.Error(t, err) // duplicate address
}

func TestSupervisorStartStop(t *testing.T) {
	_, hostPort1, _ := internal.BuildTestIMAPServer(t)
	_, hostPort2, _ := internal.BuildTestIMAPServer(t)

	store := &nopStore{}

	s, err := supervisor.New(&supervisor.Config{
		Accounts: []watcher.Account{
			account("one@onebox.dev", hostPort1),
			account("two@onebox.dev", hostPort2),
		},
		Factory:      &client.Factory{},
		Store:        store,
		Classifier:   nopClassifier{},
		Notifier:     nopNotifier{},
		PollInterval: time.Minute,
	})
	assert.NoError(t, err)

	assert.NoError(t, s.Start())

	statuses := s.Status()
	assert.Len(t, statuses, 2)
	assert.Equal(t, "one@onebox.dev", statuses[0].Account)
	assert.Equal(t, "two@onebox.dev", statuses[1].Account)
	for _, status := range statuses {
		assert.Equal(t, watcher.StateWatching, status.State)
	}

	s.Stop()
	assert.Empty(t, s.Status())
}

func TestSupervisorStartFailureStopsAll(t *testing.T) {
	_, hostPort, _ := internal.BuildTestIMAPServer(t)

	s, err := supervisor.New(&supervisor.Config{
		Accounts: []watcher.Account{
			account("good@onebox.dev", hostPort),
			account("bad@onebox.dev", "localhost:1"),
		},
		Factory:      &client.Factory{},
		Store:        &nopStore{},
		Classifier:   nopClassifier{},
		Notifier:     nopNotifier{},
		PollInterval: time.Minute,
	})
	assert.NoError(t, err)

	err = s.Start()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad@onebox.dev")

	assert.Empty(t, s.Status())
}

func TestSupervisorDoubleStart(t *testing.T) {
	_, hostPort, _ := internal.BuildTestIMAPServer(t)

	s, err := supervisor.New(&supervisor.Config{
		Accounts:     []watcher.Account{account("one@onebox.dev", hostPort)},
		Factory:      &client.Factory{},
		Store:        &nopStore{},
		Classifier:   nopClassifier{},
		Notifier:     nopNotifier{},
		PollInterval: time.Minute,
	})
	assert.NoError(t, err)

	assert.NoError(t, s.Start())
	defer s.Stop()

	assert.Error(t, s.Start())
}
