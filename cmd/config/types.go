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
	"errors"
	"time"
)

var (
	errInvalidScheme = errors.New("invalid uri scheme")
	errNoAccounts    = errors.New("no accounts configured")
)

// AccountConfig is one mailbox to watch, either from the JSON accounts
// file or from the single-account flags.
type AccountConfig struct {
	Address       string `json:"address"`
	URL           string `json:"url"`
	AuthMethod    string `json:"auth_method"`
	Username      string `json:"username"`
	Password      string `json:"-"`
	PasswordFile  string `json:"password_file"`
	TLSSkipVerify bool   `json:"tls_skip_verify"`
	Debug         bool   `json:"debug"`
}

type CliConfig struct {
	ConfigPath string `json:"-"`

	Accounts []AccountConfig `json:"accounts,omitempty"`

	// Account is populated from the single-account flags and appended
	// to Accounts on resolve.
	Account AccountConfig `json:"-"`

	Transport string `json:"transport,omitempty"`

	DBPath string `json:"db_path,omitempty"`

	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`

	LLMBaseURL string `json:"llm_base_url,omitempty"`
	LLMAPIKey  string `json:"-"`
	LLMModel   string `json:"llm_model,omitempty"`

	EmbeddingModel string `json:"embedding_model,omitempty"`

	ChatWebhookURL string `json:"chat_webhook_url,omitempty"`
	WebhookURL     string `json:"webhook_url,omitempty"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	BackfillWindow time.Duration `json:"backfill_window,omitempty"`
	PollInterval   time.Duration `json:"poll_interval,omitempty"`
	PollWindow     time.Duration `json:"poll_window,omitempty"`
}
