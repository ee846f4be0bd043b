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

package persistentclient

import (
	"crypto/tls"
	"time"

	goimap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/oneboxhq/onebox/imap"
)

type Config struct {
	HostPort  string
	Auth      imap.Authenticator
	Mailbox   string
	TLS       bool
	TLSConfig *tls.Config
	Debug     bool
	MaxDelay  time.Duration
	Updates   chan<- client.Update
}

type idleRequest struct {
	r chan error

	stop <-chan struct{}
	opts *client.IdleOptions
}

type selectResponse struct {
	status *goimap.MailboxStatus
	err    error
}

type selectRequest struct {
	r chan selectResponse

	name     string
	readOnly bool
}

type uidSearchResponse struct {
	uids []uint32
	err  error
}

type uidSearchRequest struct {
	r chan uidSearchResponse

	criteria *goimap.SearchCriteria
}

type uidFetchRequest struct {
	r chan error

	seqset *goimap.SeqSet
	items  []goimap.FetchItem
	ch     chan *goimap.Message
}

type mailboxRequest struct {
	r chan *goimap.MailboxStatus
}

type logoutRequest struct {
	r chan error
}

type clientState int32

const (
	ClientStateDisconnected clientState = 0
	ClientStateConnected    clientState = 1
)

// PersistentIMAPClient proxies the Client interface over a connection it
// re-establishes with jittered exponential backoff whenever it drops.
type PersistentIMAPClient struct {
	c             imap.Client
	cfg           Config
	ch            chan interface{}
	logoutChannel chan logoutRequest
	shutdown      int32
	loggedOut     chan struct{}
	logHost       string
}

type Factory struct {
	Mailbox  string
	MaxDelay time.Duration
}
