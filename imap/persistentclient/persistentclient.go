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
	"errors"
	"math/rand"
	"sync/atomic"
	"time"

	goimap "github.com/emersion/go-imap"
	goImapClient "github.com/emersion/go-imap/client"
	log "github.com/sirupsen/logrus"

	"github.com/oneboxhq/onebox/imap"
	"github.com/oneboxhq/onebox/imap/client"
)

var errConnectionClosed = errors.New("connection closed")

func NewClient(cfg *Config) (*PersistentIMAPClient, error) {
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 32 * time.Second
	}

	c := &PersistentIMAPClient{
		cfg:           *cfg,
		ch:            make(chan interface{}),
		logoutChannel: make(chan logoutRequest),
		loggedOut:     make(chan struct{}),
		logHost:       cfg.HostPort,
	}

	go c.run()
	return c, nil
}

func (c *PersistentIMAPClient) isShutdown() bool {
	return atomic.LoadInt32(&c.shutdown) != 0
}

func (c *PersistentIMAPClient) log() *log.Entry {
	return log.WithField("host", c.logHost)
}

func (c *PersistentIMAPClient) Idle(stop <-chan struct{}, opts *goImapClient.IdleOptions) error {
	if c.isShutdown() {
		return errConnectionClosed
	}

	r := make(chan error)
	c.ch <- idleRequest{r: r, stop: stop, opts: opts}
	return <-r
}

func (c *PersistentIMAPClient) Select(name string, readOnly bool) (*goimap.MailboxStatus, error) {
	if c.isShutdown() {
		return nil, errConnectionClosed
	}

	r := make(chan selectResponse)
	c.ch <- selectRequest{r: r, name: name, readOnly: readOnly}
	sr := <-r
	return sr.status, sr.err
}

func (c *PersistentIMAPClient) UidSearch(criteria *goimap.SearchCriteria) ([]uint32, error) {
	if c.isShutdown() {
		return nil, errConnectionClosed
	}

	r := make(chan uidSearchResponse)
	c.ch <- uidSearchRequest{r: r, criteria: criteria}
	sr := <-r
	return sr.uids, sr.err
}

func (c *PersistentIMAPClient) UidFetch(seqset *goimap.SeqSet, items []goimap.FetchItem, ch chan *goimap.Message) error {
	if c.isShutdown() {
		close(ch)
		return errConnectionClosed
	}

	r := make(chan error)
	c.ch <- uidFetchRequest{r: r, seqset: seqset, items: items, ch: ch}
	return <-r
}

func (c *PersistentIMAPClient) Mailbox() *goimap.MailboxStatus {
	if c.isShutdown() {
		return &goimap.MailboxStatus{Name: c.cfg.Mailbox}
	}

	r := make(chan *goimap.MailboxStatus)
	c.ch <- mailboxRequest{r: r}
	return <-r
}

func (c *PersistentIMAPClient) Logout() error {
	if c.isShutdown() {
		return nil
	}

	r := make(chan error)
	c.logoutChannel <- logoutRequest{r: r}
	return <-r
}

func (c *PersistentIMAPClient) LoggedOut() <-chan struct{} {
	return c.loggedOut
}

func makeAndInitClient(cfg *Config, readOnly bool) (imap.Client, error) {
	f := &client.Factory{}
	c, err := f.NewClient(&imap.ClientConfig{
		HostPort:  cfg.HostPort,
		Auth:      cfg.Auth,
		TLS:       cfg.TLS,
		TLSConfig: cfg.TLSConfig,
		Debug:     cfg.Debug,
		Updates:   cfg.Updates,
	})

	if err != nil {
		return nil, err
	}

	if cfg.Mailbox != "" {
		if _, err = c.Select(cfg.Mailbox, readOnly); err != nil {
			_ = c.Logout()
			return nil, err
		}
	}

	return c, err
}

func (c *PersistentIMAPClient) run() {
	var nextDelay time.Duration = 0
	state := ClientStateDisconnected
	for {
		c.log().WithField("state", state).Trace("pimap_loop_enter")
		if state == ClientStateDisconnected {
			select {
			case req := <-c.logoutChannel:
				c.log().Trace("pimap_logout_request")
				req.r <- nil
				goto done
			case <-time.After(nextDelay):
				break
			}

			cli, err := makeAndInitClient(&c.cfg, false)
			if err != nil {
				if nextDelay == 0 {
					nextDelay = time.Second
				} else {
					nextDelay = 2 * (nextDelay - (nextDelay % (1000 * time.Millisecond)))
				}

				nextDelay += time.Duration(rand.Intn(1000)) * time.Millisecond
				if nextDelay > c.cfg.MaxDelay {
					nextDelay = c.cfg.MaxDelay
				}

				c.log().WithError(err).WithFields(log.Fields{
					"new_delay": nextDelay,
				}).Error("pimap_connection_failed")
				continue
			}

			c.c = cli
			state = ClientStateConnected
			nextDelay = time.Second
		}

		if state == ClientStateConnected {
			select {
			case <-c.c.LoggedOut():
				c.log().Trace("pimap_disconnected")
				c.c = nil
				state = ClientStateDisconnected
			case req := <-c.logoutChannel:
				c.log().Trace("pimap_logout_request")
				req.r <- c.c.Logout()
				goto done
			case _req := <-c.ch:
				switch req := _req.(type) {
				case idleRequest:
					req.r <- c.c.Idle(req.stop, req.opts)
				case selectRequest:
					s, err := c.c.Select(req.name, req.readOnly)
					req.r <- selectResponse{status: s, err: err}
				case uidSearchRequest:
					uids, err := c.c.UidSearch(req.criteria)
					req.r <- uidSearchResponse{uids: uids, err: err}
				case uidFetchRequest:
					req.r <- c.c.UidFetch(req.seqset, req.items, req.ch)
				case mailboxRequest:
					req.r <- c.c.Mailbox()
				}
			}
		}
	}
done:
	c.c = nil
	atomic.StoreInt32(&c.shutdown, 1)
	close(c.loggedOut)
}
