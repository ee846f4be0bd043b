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
	"crypto/tls"
	"sync"
	"time"

	goimap "github.com/emersion/go-imap"

	"github.com/oneboxhq/onebox/email"
	"github.com/oneboxhq/onebox/imap"
	"github.com/oneboxhq/onebox/vector"
)

// State is the connection manager's lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSyncingInitial
	StateWatching
	StateSyncingIncremental
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateSyncingInitial:
		return "syncing_initial"
	case StateWatching:
		return "watching"
	case StateSyncingIncremental:
		return "syncing_incremental"
	default:
		panic("invalid_state")
	}
}

// Account is one configured mailbox identity. It is immutable for the
// process lifetime; one Account maps to exactly one Watcher.
type Account struct {
	Address   string
	Auth      imap.Authenticator
	HostPort  string
	TLS       bool
	TLSConfig *tls.Config
	Debug     bool
}

// Store is the slice of the search index the watcher writes to.
type Store interface {
	Put(ctx context.Context, msg *email.Message) error

	PatchCategory(ctx context.Context, id string, category email.Category) error
}

// Classifier annotates a message with a category; it never fails, by
// contract degrading to the default category instead.
type Classifier interface {
	Categorize(ctx context.Context, msg *email.Message) email.Category
}

// Notifier fans a categorized message out to its sinks.
type Notifier interface {
	Dispatch(ctx context.Context, msg *email.Message)
}

type Config struct {
	Account Account
	Factory imap.ClientFactory

	// Folder to watch; INBOX when empty.
	Folder string

	Store      Store
	Classifier Classifier
	Notifier   Notifier

	// Index and Embedder, when both set, receive each message's body
	// text for later reply suggestion (best-effort).
	Index    vector.Index
	Embedder vector.Embedder

	// BackfillWindow is the trailing window of the initial sync.
	BackfillWindow time.Duration

	// PollInterval is the tick between incremental syncs; PollWindow
	// the trailing search window of each tick.
	PollInterval time.Duration
	PollWindow   time.Duration

	// DoneChan receives the result of the initial backfill, exactly once.
	DoneChan chan<- error

	// OnDisconnect, if set, is invoked once when the watcher leaves its
	// run loop, with a nil error on a clean stop.
	OnDisconnect func(account string, err error)
}

// Status is a point-in-time snapshot of a watcher.
type Status struct {
	Account   string
	State     State
	Watermark uint32
	Processed uint64
	LastSync  time.Time
	LastError string
}

// Watcher owns one account's persistent session and pumps its messages
// through the processing pipeline.
type Watcher struct {
	cfg     Config
	folder  string
	client  imap.Client
	section *goimap.BodySectionName

	wantQuit  chan struct{}
	hasQuit   chan struct{}
	closeOnce sync.Once

	mu        sync.Mutex
	state     State
	watermark uint32
	processed uint64
	lastSync  time.Time
	lastError error
	doneSent  bool
}
