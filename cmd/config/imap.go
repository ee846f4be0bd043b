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
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/emersion/go-sasl"
	"golang.org/x/oauth2"

	"github.com/oneboxhq/onebox/imap"
	"github.com/oneboxhq/onebox/watcher"
)

func extractUrl(u *url.URL) (string, string, bool, error) {
	var defaultPort string
	var useTLS bool
	switch strings.ToLower(u.Scheme) {
	case "imap":
		defaultPort = "143"
		useTLS = false
	case "imaps":
		defaultPort = "993"
		useTLS = true
	default:
		return "", "", false, errInvalidScheme
	}

	host := u.Hostname()
	port := u.Port()

	if port == "" {
		port = defaultPort
	}

	return net.JoinHostPort(host, port), strings.TrimPrefix(u.Path, "/"), useTLS, nil
}

func (cfg *AccountConfig) password() (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}

	if cfg.PasswordFile != "" {
		pass, err := os.ReadFile(cfg.PasswordFile)
		if err != nil {
			return "", err
		}

		return strings.TrimSpace(string(pass)), nil
	}

	return "", fmt.Errorf("account %v: one of \"password\" or \"password_file\" is required", cfg.Username)
}

// Resolve turns the account entry into a watcher account plus the
// mailbox named by the URL path ("" when the URL has none).
func (cfg *AccountConfig) Resolve() (watcher.Account, string, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return watcher.Account{}, "", err
	}

	hostPort, mailbox, wantTLS, err := extractUrl(u)
	if err != nil {
		return watcher.Account{}, "", err
	}

	if cfg.Username == "" {
		return watcher.Account{}, "", fmt.Errorf("account %v: username is required", cfg.URL)
	}

	account := watcher.Account{
		Address:  cfg.Address,
		HostPort: hostPort,
		TLS:      wantTLS,
		Debug:    cfg.Debug,
	}

	if account.Address == "" {
		account.Address = cfg.Username
	}

	switch strings.ToUpper(cfg.AuthMethod) {
	case "", "NORMAL":
		pass, err := cfg.password()
		if err != nil {
			return watcher.Account{}, "", err
		}

		account.Auth = imap.NewNormalAuthenticator(cfg.Username, pass)
	case sasl.Plain:
		pass, err := cfg.password()
		if err != nil {
			return watcher.Account{}, "", err
		}

		account.Auth = imap.NewSASLAuthenticator(sasl.NewPlainClient("", cfg.Username, pass))
	case sasl.OAuthBearer:
		// The "password" is the OAuth2 access token.
		token, err := cfg.password()
		if err != nil {
			return watcher.Account{}, "", err
		}

		account.Auth = imap.NewOAuthBearerAuthenticator(cfg.Username,
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	default:
		return watcher.Account{}, "", fmt.Errorf("unsupported auth method: %v", cfg.AuthMethod)
	}

	if cfg.TLSSkipVerify {
		// #nosec G402
		account.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return account, mailbox, nil
}
