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

package run

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/oneboxhq/onebox/classify"
	"github.com/oneboxhq/onebox/cmd/config"
	"github.com/oneboxhq/onebox/live"
	"github.com/oneboxhq/onebox/notify"
	"github.com/oneboxhq/onebox/store"
	"github.com/oneboxhq/onebox/supervisor"
	"github.com/oneboxhq/onebox/vector"
)

const (
	chatTimeout         = 5 * time.Second
	webhookTimeout      = 10 * time.Second
	webhookBatchTimeout = 15 * time.Second
)

func RegisterCommand(app *cli.App) *cli.App {
	cfg := &config.CliConfig{}
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "run",
		Usage:  "Watch the configured accounts",
		Flags:  cfg.Parameters(),
		Action: func(context *cli.Context) error { return run(context, cfg) },
	})
	return app
}

func run(_ *cli.Context, cfg *config.CliConfig) error {
	logLevel, err := log.ParseLevel(cfg.LogLevel)
	if err == nil {
		log.SetLevel(logLevel)
	}

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}

	resolved, err := cfg.Resolve()
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"accounts":        len(resolved.Accounts),
		"folder":          resolved.Folder,
		"transport":       cfg.Transport,
		"db_path":         cfg.DBPath,
		"redis_addr":      cfg.RedisAddr,
		"llm_base_url":    cfg.LLMBaseURL,
		"llm_model":       cfg.LLMModel,
		"log_level":       cfg.LogLevel,
		"log_format":      cfg.LogFormat,
		"backfill_window": cfg.BackfillWindow,
		"poll_interval":   cfg.PollInterval,
		"poll_window":     cfg.PollWindow,
	}).Info("starting")

	st, err := store.NewSQLStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	embedder := vector.NewEmbedder(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel)

	var index vector.Index
	var publisher live.Publisher

	if cfg.RedisAddr != "" {
		rdb := live.NewRedisClient(cfg.RedisAddr, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()

		index = vector.NewRedisIndex(rdb)
		publisher = live.NewRedisPublisher(rdb)
	} else {
		index = vector.NewMemoryIndex()
		publisher = live.NewBus()
	}

	gateway := classify.NewGateway(classify.Config{
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		Index:    index,
		Embedder: embedder,
	})

	var chat, webhook notify.Sink
	if cfg.ChatWebhookURL != "" {
		chat = notify.NewChatSink(cfg.ChatWebhookURL, chatTimeout)
	}
	if cfg.WebhookURL != "" {
		webhook = notify.NewWebhookSink(cfg.WebhookURL, webhookTimeout, webhookBatchTimeout)
	}

	notifier := notify.NewNotifier(chat, webhook, publisher)

	sup, err := supervisor.New(&supervisor.Config{
		Accounts:       resolved.Accounts,
		Factory:        resolved.Factory,
		Folder:         resolved.Folder,
		Store:          st,
		Classifier:     gateway,
		Notifier:       notifier,
		Index:          index,
		Embedder:       embedder,
		BackfillWindow: cfg.BackfillWindow,
		PollInterval:   cfg.PollInterval,
		PollWindow:     cfg.PollWindow,
	})
	if err != nil {
		return err
	}

	if err := sup.Start(); err != nil {
		return err
	}

	sigchan := make(chan os.Signal, 10)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})

	sigcount := 0
	for {
		select {
		case sig := <-sigchan:
			log.WithFields(log.Fields{"signal": sig, "count": sigcount}).Trace("caught_signal")

			sigcount += 1
			if sigcount > 1 {
				log.WithFields(log.Fields{"signal": sig}).Warn("received_interrupt_force_exit")
				os.Exit(1)
			}
			log.WithFields(log.Fields{"signal": sig}).Info("received_interrupt")

			go func() {
				sup.Stop()
				close(stopped)
			}()
		case <-stopped:
			log.Info("supervisor_terminated")
			return nil
		}
	}
}
