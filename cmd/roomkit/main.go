// Copyright 2024-2026 Remi Philippe
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Command roomkit talks to a Matrix homeserver to inspect MSC2545 emoji
// and sticker packs, resolve shortcodes the way a chat client would, and
// edit room profiles from the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cfgFile     string
	syncTimeout time.Duration
	cfg         *Config
)

var rootCmd = &cobra.Command{
	Use:   "roomkit",
	Short: "Matrix emoji pack and room settings toolkit",
	Long: `roomkit talks to a Matrix homeserver to inspect MSC2545 emoji and
sticker packs, resolve shortcodes the way a chat client would, and edit
room profiles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		setupLogging(cfg.Log.Level)
		return nil
	},
}

func setupLogging(level string) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("configured_level", level).Msg("Invalid log level, defaulting to info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.config/roomkit/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&syncTimeout, "timeout", 2*time.Minute, "how long to wait for the initial sync")
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newPacksCmd())
	rootCmd.AddCommand(newEmojiCmd())
	rootCmd.AddCommand(newProfileCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
