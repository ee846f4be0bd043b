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

package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/oneboxhq/onebox/cmd/oauthlogin"
	"github.com/oneboxhq/onebox/cmd/reply"
	"github.com/oneboxhq/onebox/cmd/run"
	"github.com/oneboxhq/onebox/cmd/search"
)

func Main() {
	app := cli.App{
		Name:  "onebox",
		Usage: os.Args[0],
		Description: `Onebox watches one or more mailboxes via IMAP, keeps a local
searchable index of their mail, categorizes every message and pushes
notifications and live updates as new mail arrives.
`,
	}

	run.RegisterCommand(&app)
	search.RegisterCommand(&app)
	reply.RegisterCommand(&app)
	oauthlogin.RegisterCommand(&app)

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
