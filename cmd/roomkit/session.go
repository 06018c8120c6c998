// Copyright 2024-2026 Aiku AI

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aiku/matrix-roomkit/pkg/mxsession"
)

func newSession() (*mxsession.Session, error) {
	if cfg.Homeserver == "" {
		return nil, errors.New("no homeserver configured, run roomkit login first")
	}
	if cfg.AccessToken == "" {
		return nil, errors.New("not logged in, run roomkit login first")
	}
	return mxsession.NewSession(cfg.Homeserver, cfg.UserID, cfg.AccessToken, log.Logger)
}

// withSyncedSession runs fn against a session whose initial sync has
// completed, keeping the sync loop alive for the duration of fn.
func withSyncedSession(cmd *cobra.Command, fn func(ctx context.Context, session *mxsession.Session) error) error {
	session, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	syncDone := make(chan error, 1)
	go func() { syncDone <- session.Sync(ctx) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, syncTimeout)
	defer waitCancel()
	if err := session.WaitForInitialSync(waitCtx); err != nil {
		return fmt.Errorf("initial sync did not complete: %w", err)
	}

	runErr := fn(ctx, session)
	cancel()
	if syncErr := <-syncDone; syncErr != nil && runErr == nil {
		runErr = syncErr
	}
	return runErr
}
