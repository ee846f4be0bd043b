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

package reply

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/oneboxhq/onebox/classify"
	"github.com/oneboxhq/onebox/cmd/config"
	"github.com/oneboxhq/onebox/live"
	"github.com/oneboxhq/onebox/store"
	"github.com/oneboxhq/onebox/vector"
)

type replyConfig struct {
	config.CliConfig

	training string
}

func RegisterCommand(app *cli.App) *cli.App {
	cfg := &replyConfig{}

	flags := cfg.Parameters()
	flags = append(flags, &cli.StringFlag{
		Name:        "training",
		Usage:       "product context folded into the reply prompt",
		EnvVars:     []string{"ONEBOX_REPLY_TRAINING"},
		Destination: &cfg.training,
	})

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "reply",
		Usage:     "Suggest a reply to a stored email",
		ArgsUsage: "<message-id>",
		Flags:     flags,
		Action:    func(context *cli.Context) error { return reply(context, cfg) },
	})
	return app
}

func reply(c *cli.Context, cfg *replyConfig) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("a message id is required")
	}

	st, err := store.NewSQLStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	msg, err := st.Get(context.Background(), id)
	if err != nil {
		return err
	}

	var index vector.Index
	if cfg.RedisAddr != "" {
		rdb := live.NewRedisClient(cfg.RedisAddr, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		index = vector.NewRedisIndex(rdb)
	}

	gateway := classify.NewGateway(classify.Config{
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		Index:    index,
		Embedder: vector.NewEmbedder(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel),
	})

	fmt.Println(gateway.SuggestReply(context.Background(), msg, cfg.training))
	return nil
}
