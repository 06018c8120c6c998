// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-roomkit/pkg/mxsession"
)

func newLoginCmd() *cobra.Command {
	var homeserver, user, password, token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a homeserver and store the credentials",
		Long: `Log in with a username and password, or verify and store an existing
access token. Either way the credentials end up in the config file for
the other commands to use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if homeserver == "" {
				homeserver = cfg.Homeserver
			}
			if homeserver == "" {
				return errors.New("--homeserver is required")
			}
			switch {
			case token != "":
				return loginWithToken(cmd, homeserver, token)
			case user != "" && password != "":
				return loginWithPassword(cmd, homeserver, user, password)
			default:
				return errors.New("either --token or both --user and --password are required")
			}
		},
	}
	cmd.Flags().StringVar(&homeserver, "homeserver", "", "homeserver URL, e.g. https://matrix.example.com")
	cmd.Flags().StringVar(&user, "user", "", "user localpart or full user ID")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&token, "token", "", "existing access token to verify and store")
	return cmd
}

func loginWithPassword(cmd *cobra.Command, homeserver, user, password string) error {
	session, err := mxsession.NewSession(homeserver, "", "", log.Logger)
	if err != nil {
		return err
	}
	resp, err := session.LoginPassword(cmd.Context(), user, password)
	if err != nil {
		return err
	}
	return writeCredentials(cmd, homeserver, resp.UserID, resp.AccessToken)
}

func loginWithToken(cmd *cobra.Command, homeserver, token string) error {
	session, err := mxsession.NewSession(homeserver, "", token, log.Logger)
	if err != nil {
		return err
	}
	resp, err := session.Whoami(cmd.Context())
	if err != nil {
		return err
	}
	return writeCredentials(cmd, homeserver, resp.UserID, token)
}

func writeCredentials(cmd *cobra.Command, homeserver string, userID id.UserID, token string) error {
	cfg.Homeserver = homeserver
	cfg.UserID = userID
	cfg.AccessToken = token
	if err := saveConfig(cfgFile, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", userID)
	return nil
}
