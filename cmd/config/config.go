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

	"github.com/urfave/cli/v2"

	"github.com/oneboxhq/onebox/imap"
	"github.com/oneboxhq/onebox/imap/client"
	"github.com/oneboxhq/onebox/imap/persistentclient"
	"github.com/oneboxhq/onebox/watcher"
)

func DefaultConfig() CliConfig {
	return CliConfig{
		Transport:      "persistent",
		DBPath:         "onebox.db",
		LLMBaseURL:     "https://api.openai.com",
		LLMModel:       "gpt-4o-mini",
		EmbeddingModel: "text-embedding-3-small",
		LogLevel:       "info",
		LogFormat:      "text",
		BackfillWindow: watcher.DefaultBackfillWindow,
		PollInterval:   watcher.DefaultPollInterval,
		PollWindow:     watcher.DefaultPollWindow,
	}
}

func (cfg *CliConfig) Parameters() []cli.Flag {
	def := DefaultConfig()

	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to a json accounts file",
			EnvVars:     []string{"ONEBOX_CONFIG"},
			Destination: &cfg.ConfigPath,
		},
		&cli.StringFlag{
			Name:        "url",
			Usage:       "imap url of a single account",
			EnvVars:     []string{"ONEBOX_URL"},
			Destination: &cfg.Account.URL,
		},
		&cli.StringFlag{
			Name:        "address",
			Usage:       "address identifying the single account",
			EnvVars:     []string{"ONEBOX_ADDRESS"},
			Destination: &cfg.Account.Address,
		},
		&cli.StringFlag{
			Name:        "auth-method",
			Usage:       "imap auth method",
			EnvVars:     []string{"ONEBOX_AUTH_METHOD"},
			Destination: &cfg.Account.AuthMethod,
		},
		&cli.StringFlag{
			Name:        "username",
			Usage:       "imap username",
			EnvVars:     []string{"ONEBOX_USERNAME"},
			Destination: &cfg.Account.Username,
		},
		&cli.StringFlag{
			Name:        "password",
			Usage:       "imap password",
			EnvVars:     []string{"ONEBOX_PASSWORD"},
			Destination: &cfg.Account.Password,
		},
		&cli.StringFlag{
			Name:        "password-file",
			Usage:       "imap password file",
			EnvVars:     []string{"ONEBOX_PASSWORD_FILE"},
			Destination: &cfg.Account.PasswordFile,
		},
		&cli.BoolFlag{
			Name:        "tls-skip-verify",
			Usage:       "skip tls verification",
			EnvVars:     []string{"ONEBOX_TLS_SKIP_VERIFY"},
			Destination: &cfg.Account.TLSSkipVerify,
		},
		&cli.BoolFlag{
			Name:        "imap-debug",
			Usage:       "display imap debug info",
			EnvVars:     []string{"ONEBOX_IMAP_DEBUG"},
			Destination: &cfg.Account.Debug,
		},
		&cli.StringFlag{
			Name:        "transport",
			Usage:       "imap transport (persistent, standard)",
			EnvVars:     []string{"ONEBOX_TRANSPORT"},
			Destination: &cfg.Transport,
			Value:       def.Transport,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "path to the sqlite index",
			EnvVars:     []string{"ONEBOX_DB_PATH"},
			Destination: &cfg.DBPath,
			Value:       def.DBPath,
		},
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "redis address for live updates and the vector index; in-process when empty",
			EnvVars:     []string{"ONEBOX_REDIS_ADDR"},
			Destination: &cfg.RedisAddr,
		},
		&cli.IntFlag{
			Name:        "redis-db",
			Usage:       "redis database number",
			EnvVars:     []string{"ONEBOX_REDIS_DB"},
			Destination: &cfg.RedisDB,
		},
		&cli.StringFlag{
			Name:        "llm-base-url",
			Usage:       "openai-compatible api base url",
			EnvVars:     []string{"ONEBOX_LLM_BASE_URL"},
			Destination: &cfg.LLMBaseURL,
			Value:       def.LLMBaseURL,
		},
		&cli.StringFlag{
			Name:        "llm-api-key",
			Usage:       "openai-compatible api key",
			EnvVars:     []string{"ONEBOX_LLM_API_KEY"},
			Destination: &cfg.LLMAPIKey,
		},
		&cli.StringFlag{
			Name:        "llm-model",
			Usage:       "model used for classification and replies",
			EnvVars:     []string{"ONEBOX_LLM_MODEL"},
			Destination: &cfg.LLMModel,
			Value:       def.LLMModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "model used for embeddings",
			EnvVars:     []string{"ONEBOX_EMBEDDING_MODEL"},
			Destination: &cfg.EmbeddingModel,
			Value:       def.EmbeddingModel,
		},
		&cli.StringFlag{
			Name:        "chat-webhook-url",
			Usage:       "chat webhook notified of interested emails",
			EnvVars:     []string{"ONEBOX_CHAT_WEBHOOK_URL"},
			Destination: &cfg.ChatWebhookURL,
		},
		&cli.StringFlag{
			Name:        "webhook-url",
			Usage:       "external webhook notified of interested emails",
			EnvVars:     []string{"ONEBOX_WEBHOOK_URL"},
			Destination: &cfg.WebhookURL,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "logging level",
			EnvVars:     []string{"ONEBOX_LOG_LEVEL"},
			Destination: &cfg.LogLevel,
			Value:       def.LogLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "logging format (text/json)",
			EnvVars:     []string{"ONEBOX_LOG_FORMAT"},
			Destination: &cfg.LogFormat,
			Value:       def.LogFormat,
		},
		&cli.DurationFlag{
			Name:        "backfill-window",
			Usage:       "how far back the initial sync reaches",
			EnvVars:     []string{"ONEBOX_BACKFILL_WINDOW"},
			Destination: &cfg.BackfillWindow,
			Value:       def.BackfillWindow,
		},
		&cli.DurationFlag{
			Name:        "poll-interval",
			Usage:       "interval between incremental syncs",
			EnvVars:     []string{"ONEBOX_POLL_INTERVAL"},
			Destination: &cfg.PollInterval,
			Value:       def.PollInterval,
		},
		&cli.DurationFlag{
			Name:        "poll-window",
			Usage:       "trailing search window of an incremental sync",
			EnvVars:     []string{"ONEBOX_POLL_WINDOW"},
			Destination: &cfg.PollWindow,
			Value:       def.PollWindow,
		},
	}
}

// Resolved is everything account-shaped the supervisor needs.
type Resolved struct {
	Accounts []watcher.Account
	Folder   string
	Factory  imap.ClientFactory
}

// Resolve loads the accounts file (when given), folds in the
// single-account flags, and turns the lot into watcher accounts.
func (cfg *CliConfig) Resolve() (Resolved, error) {
	if cfg.ConfigPath != "" {
		raw, err := os.ReadFile(cfg.ConfigPath)
		if err != nil {
			return Resolved{}, err
		}

		if err := json.Unmarshal(raw, cfg); err != nil {
			return Resolved{}, err
		}
	}

	entries := cfg.Accounts
	if cfg.Account.URL != "" {
		entries = append(entries, cfg.Account)
	}

	if len(entries) == 0 {
		return Resolved{}, errNoAccounts
	}

	var resolved Resolved
	for i := range entries {
		account, mailbox, err := entries[i].Resolve()
		if err != nil {
			return Resolved{}, err
		}

		if resolved.Folder == "" {
			resolved.Folder = mailbox
		}

		resolved.Accounts = append(resolved.Accounts, account)
	}

	if resolved.Folder == "" {
		resolved.Folder = "INBOX"
	}

	if cfg.Transport != "persistent" {
		resolved.Factory = &client.Factory{}
	} else {
		resolved.Factory = &persistentclient.Factory{
			Mailbox:  resolved.Folder,
			MaxDelay: 0,
		}
	}

	if cfg.BackfillWindow == 0 {
		cfg.BackfillWindow = watcher.DefaultBackfillWindow
	}

	if cfg.PollInterval == 0 {
		cfg.PollInterval = watcher.DefaultPollInterval
	}

	if cfg.PollWindow == 0 {
		cfg.PollWindow = watcher.DefaultPollWindow
	}

	return resolved, nil
}
