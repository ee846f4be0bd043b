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

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/emersion/go-sasl"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneboxhq/onebox/imap/client"
	mock_imap "github.com/oneboxhq/onebox/imap/mocks"
	"github.com/oneboxhq/onebox/imap/persistentclient"
)

func getTestAccountConfig() AccountConfig {
	return AccountConfig{
		Address:  "sales@onebox.dev",
		URL:      "imaps://imap.hostname.com:1234/INBOX",
		Username: "username",
		Password: "password",
	}
}

func TestAccountConfig_Resolve(t *testing.T) {
	t.Run("password", func(t *testing.T) {
		cfg := getTestAccountConfig()

		account, mailbox, err := cfg.Resolve()
		assert.NoError(t, err)
		assert.Equal(t, "imap.hostname.com:1234", account.HostPort)
		assert.Equal(t, "sales@onebox.dev", account.Address)
		assert.Equal(t, "INBOX", mailbox)
		assert.True(t, account.TLS)
		assert.Nil(t, account.TLSConfig)
		assert.NotNil(t, account.Auth)
	})

	t.Run("password_file", func(t *testing.T) {
		passFile := filepath.Join(t.TempDir(), "pass.txt")
		require.NoError(t, os.WriteFile(passFile, []byte("password\n"), 0600))

		cfg := getTestAccountConfig()
		cfg.Password = ""
		cfg.PasswordFile = passFile

		account, _, err := cfg.Resolve()
		assert.NoError(t, err)
		assert.NotNil(t, account.Auth)
	})

	t.Run("no_password", func(t *testing.T) {
		cfg := getTestAccountConfig()
		cfg.Password = ""

		_, _, err := cfg.Resolve()
		assert.Error(t, err)
	})

	t.Run("address_defaults_to_username", func(t *testing.T) {
		cfg := getTestAccountConfig()
		cfg.Address = ""

		account, _, err := cfg.Resolve()
		assert.NoError(t, err)
		assert.Equal(t, "username", account.Address)
	})

	t.Run("plain_imap", func(t *testing.T) {
		cfg := getTestAccountConfig()
		cfg.URL = "imap://imap.hostname.com/Archive"

		account, mailbox, err := cfg.Resolve()
		assert.NoError(t, err)
		assert.Equal(t, "imap.hostname.com:143", account.HostPort)
		assert.Equal(t, "Archive", mailbox)
		assert.False(t, account.TLS)
	})

	t.Run("invalid_scheme", func(t *testing.T) {
		cfg := getTestAccountConfig()
		cfg.URL = "http://imap.hostname.com"

		_, _, err := cfg.Resolve()
		assert.ErrorIs(t, err, errInvalidScheme)
	})

	t.Run("unsupported_auth", func(t *testing.T) {
		cfg := getTestAccountConfig()
		cfg.AuthMethod = "XOAUTH2"

		_, _, err := cfg.Resolve()
		assert.Error(t, err)
	})

	t.Run("auth_normal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockAuth := mock_imap.NewMockAuthenticatable(ctrl)
		mockAuth.EXPECT().Login("username", "password")

		cfg := getTestAccountConfig()
		account, _, err := cfg.Resolve()
		assert.NoError(t, err)
		assert.NoError(t, account.Auth.Authenticate(mockAuth))
	})

	t.Run("auth_plain", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockAuth := mock_imap.NewMockAuthenticatable(ctrl)
		mockAuth.EXPECT().Authenticate(gomock.Any()).DoAndReturn(func(c sasl.Client) error {
			mech, ir, err := c.Start()
			assert.NoError(t, err)
			assert.Equal(t, sasl.Plain, mech)
			assert.Equal(t, []byte("\x00username\x00password"), ir)
			return nil
		})

		cfg := getTestAccountConfig()
		cfg.AuthMethod = sasl.Plain

		account, _, err := cfg.Resolve()
		assert.NoError(t, err)
		assert.NoError(t, account.Auth.Authenticate(mockAuth))
	})
}

func TestCliConfig_Resolve(t *testing.T) {
	t.Run("factories", func(t *testing.T) {
		t.Run("persistent", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Account = getTestAccountConfig()

			resolved, err := cfg.Resolve()
			assert.NoError(t, err)
			assert.Equal(t, &persistentclient.Factory{Mailbox: "INBOX", MaxDelay: 0}, resolved.Factory)
		})

		t.Run("standard", func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Account = getTestAccountConfig()
			cfg.Transport = "standard"

			resolved, err := cfg.Resolve()
			assert.NoError(t, err)
			assert.Equal(t, &client.Factory{}, resolved.Factory)
		})
	})

	t.Run("no_accounts", func(t *testing.T) {
		cfg := DefaultConfig()

		_, err := cfg.Resolve()
		assert.ErrorIs(t, err, errNoAccounts)
	})

	t.Run("accounts_file", func(t *testing.T) {
		dir := t.TempDir()

		// Passwords are deliberately not serialized; the accounts file
		// references password files instead.
		passFile := filepath.Join(dir, "pass.txt")
		require.NoError(t, os.WriteFile(passFile, []byte("password"), 0600))

		sales := getTestAccountConfig()
		sales.Password = ""
		sales.PasswordFile = passFile

		file := CliConfig{
			Accounts: []AccountConfig{
				sales,
				{
					Address:      "support@onebox.dev",
					URL:          "imaps://imap.other.com/INBOX",
					Username:     "support",
					PasswordFile: passFile,
				},
			},
		}

		raw, err := json.Marshal(&file)
		require.NoError(t, err)

		path := filepath.Join(dir, "onebox.json")
		require.NoError(t, os.WriteFile(path, raw, 0600))

		cfg := DefaultConfig()
		cfg.ConfigPath = path

		resolved, err := cfg.Resolve()
		assert.NoError(t, err)
		require.Len(t, resolved.Accounts, 2)
		assert.Equal(t, "sales@onebox.dev", resolved.Accounts[0].Address)
		assert.Equal(t, "support@onebox.dev", resolved.Accounts[1].Address)
		assert.Equal(t, "INBOX", resolved.Folder)
	})
}
