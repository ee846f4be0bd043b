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

package persistentclient_test

import (
	"testing"

	goimap "github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"

	"github.com/oneboxhq/onebox/imap"
	"github.com/oneboxhq/onebox/imap/persistentclient"
	"github.com/oneboxhq/onebox/internal"
)

func TestPersistentClient(t *testing.T) {
	_, address, _ := internal.BuildTestIMAPServer(t)

	f := &persistentclient.Factory{Mailbox: "INBOX"}
	c, err := f.NewClient(&imap.ClientConfig{
		HostPort: address,
		Auth:     imap.NewNormalAuthenticator("username", "password"),
	})
	assert.NoError(t, err)

	status, err := c.Select("INBOX", false)
	assert.NoError(t, err)
	assert.Equal(t, "INBOX", status.Name)

	uids, err := c.UidSearch(&goimap.SearchCriteria{WithoutFlags: []string{goimap.DeletedFlag}})
	assert.NoError(t, err)
	assert.Empty(t, uids)

	assert.NoError(t, c.Logout())

	select {
	case <-c.LoggedOut():
	default:
		t.Fatal("LoggedOut not closed after Logout")
	}

	// Post-shutdown calls must fail fast rather than hang.
	_, err = c.Select("INBOX", false)
	assert.Error(t, err)
	assert.NoError(t, c.Logout())
}
