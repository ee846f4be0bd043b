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

import "github.com/oneboxhq/onebox/imap"

func (f *Factory) NewClient(cfg *imap.ClientConfig) (imap.Client, error) {
	return NewClient(&Config{
		HostPort:  cfg.HostPort,
		Auth:      cfg.Auth,
		Mailbox:   f.Mailbox,
		TLS:       cfg.TLS,
		TLSConfig: cfg.TLSConfig,
		Debug:     cfg.Debug,
		MaxDelay:  f.MaxDelay,
		Updates:   cfg.Updates,
	})
}
