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

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/oneboxhq/onebox/cmd/config"
	"github.com/oneboxhq/onebox/email"
	"github.com/oneboxhq/onebox/store"
)

type searchConfig struct {
	config.CliConfig

	account  string
	folder   string
	category string
}

func RegisterCommand(app *cli.App) *cli.App {
	cfg := &searchConfig{}

	flags := cfg.Parameters()
	flags = append(flags,
		&cli.StringFlag{
			Name:        "account",
			Usage:       "restrict results to one account",
			Destination: &cfg.account,
		},
		&cli.StringFlag{
			Name:        "folder",
			Usage:       "restrict results to one folder",
			Destination: &cfg.folder,
		},
		&cli.StringFlag{
			Name:        "category",
			Usage:       "restrict results to one category",
			Destination: &cfg.category,
		},
	)

	app.Commands = append(app.Commands, &cli.Command{
		Name:      "search",
		Usage:     "Search the local email index",
		ArgsUsage: "[text]",
		Flags:     flags,
		Action:    func(context *cli.Context) error { return search(context, cfg) },
	})
	return app
}

func search(c *cli.Context, cfg *searchConfig) error {
	filters := store.Filters{
		Account: cfg.account,
		Folder:  cfg.folder,
	}

	if cfg.category != "" {
		category, ok := email.ParseCategory(cfg.category)
		if !ok {
			return fmt.Errorf("unknown category: %v", cfg.category)
		}
		filters.Category = category
	}

	st, err := store.NewSQLStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	msgs, err := st.Query(context.Background(), c.Args().First(), filters)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(msgs); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "%d message(s)\n", len(msgs))
	return nil
}
