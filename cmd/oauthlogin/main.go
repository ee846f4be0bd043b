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

package oauthlogin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/emersion/go-oauthdialog"
	"github.com/emersion/go-sasl"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

type oauthConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	Scopes       cli.StringSlice
}

func (cfg *oauthConfig) parameters() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "provider",
			Usage:       "oauth2 provider shortcut (google)",
			EnvVars:     []string{"ONEBOX_OAUTH_PROVIDER"},
			Destination: &cfg.Provider,
		},
		&cli.StringFlag{
			Name:        "client-id",
			Usage:       "oauth2 client id",
			EnvVars:     []string{"ONEBOX_OAUTH_CLIENT_ID"},
			Destination: &cfg.ClientID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "client-secret",
			Usage:       "oauth2 client secret",
			EnvVars:     []string{"ONEBOX_OAUTH_CLIENT_SECRET"},
			Destination: &cfg.ClientSecret,
		},
		&cli.StringFlag{
			Name:        "auth-url",
			Usage:       "oauth2 authorization endpoint",
			EnvVars:     []string{"ONEBOX_OAUTH_AUTH_URL"},
			Destination: &cfg.AuthURL,
		},
		&cli.StringFlag{
			Name:        "token-url",
			Usage:       "oauth2 token endpoint",
			EnvVars:     []string{"ONEBOX_OAUTH_TOKEN_URL"},
			Destination: &cfg.TokenURL,
		},
		&cli.StringSliceFlag{
			Name:        "scope",
			Usage:       "oauth2 scope (repeatable)",
			EnvVars:     []string{"ONEBOX_OAUTH_SCOPES"},
			Destination: &cfg.Scopes,
		},
	}
}

func (cfg *oauthConfig) resolve() (oauth2.Config, error) {
	conf := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
		Scopes: cfg.Scopes.Value(),
	}

	switch strings.ToLower(cfg.Provider) {
	case "":
		if conf.Endpoint.AuthURL == "" || conf.Endpoint.TokenURL == "" {
			return oauth2.Config{}, errors.New("either \"provider\" or both \"auth-url\" and \"token-url\" are required")
		}
	case "google":
		conf.Endpoint = endpoints.Google
		if len(conf.Scopes) == 0 {
			conf.Scopes = []string{"https://mail.google.com/"}
		}
	default:
		return oauth2.Config{}, fmt.Errorf("unknown provider: %v", cfg.Provider)
	}

	return conf, nil
}

func RegisterCommand(app *cli.App) *cli.App {
	cfg := &oauthConfig{}
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "oauthlogin",
		Usage:  "Generate an OAuth2 token",
		Flags:  cfg.parameters(),
		Action: func(context *cli.Context) error { return oauthlogin(context, cfg) },
	})
	return app
}

func oauthlogin(ctx *cli.Context, cfg *oauthConfig) error {
	conf, err := cfg.resolve()
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"auth_url":  conf.Endpoint.AuthURL,
		"token_url": conf.Endpoint.TokenURL,
		"client_id": conf.ClientID,
		"scopes":    conf.Scopes,
	}).Info("using_provider")

	code, err := oauthdialog.Open(&conf)
	if err != nil {
		return err
	}

	tok, err := conf.Exchange(ctx.Context, code, oauth2.AccessTypeOffline)
	if err != nil {
		return err
	}

	log.Infof("Your OAuth2 token is:\n")
	log.Info()
	log.Infof("  %v\n", tok.AccessToken)
	log.Info()
	log.Infof("You may now pass this via:\n")
	log.Infof("  --auth-method=%v (ONEBOX_AUTH_METHOD=%v), and\n", sasl.OAuthBearer, sasl.OAuthBearer)
	log.Infof("  --password=<token> (ONEBOX_PASSWORD=<token>)\n")

	return nil
}
