// Copyright 2024-2026 Aiku AI

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-roomkit/pkg/emotes"
	"github.com/aiku/matrix-roomkit/pkg/mxsession"
)

func newEmojiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emoji",
		Short: "Resolve and complete emoji shortcodes",
	}
	cmd.AddCommand(newEmojiResolveCmd(), newEmojiCompleteCmd())
	return cmd
}

func newEmojiResolveCmd() *cobra.Command {
	var roomID, usageName string
	cmd := &cobra.Command{
		Use:   "resolve <shortcode>",
		Short: "Resolve a shortcode the way a message composer would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := parseUsage(usageName)
			if err != nil {
				return err
			}
			shortcode := strings.Trim(args[0], ":")
			return withSyncedSession(cmd, func(ctx context.Context, session *mxsession.Session) error {
				resolver := emotes.NewResolver(session.EmoteSession(), log.Logger)
				room := session.EmoteSession().Room(id.RoomID(roomID))
				entry, ok := resolver.ShortcodeMap(room, usage)[shortcode]
				if !ok {
					return fmt.Errorf("nothing answers to :%s: here", shortcode)
				}
				printEmoji(cmd, entry)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&roomID, "room", "r", "", "room ID providing the context")
	cmd.Flags().StringVar(&usageName, "usage", "emoticon", "resolve for emoticon or sticker use")
	return cmd
}

func newEmojiCompleteCmd() *cobra.Command {
	var roomID, usageName string
	var limit int
	cmd := &cobra.Command{
		Use:   "complete [prefix]",
		Short: "List completion candidates, optionally filtered by prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			usage, err := parseUsage(usageName)
			if err != nil {
				return err
			}
			var prefix string
			if len(args) == 1 {
				prefix = strings.Trim(args[0], ":")
			}
			return withSyncedSession(cmd, func(ctx context.Context, session *mxsession.Session) error {
				resolver := emotes.NewResolver(session.EmoteSession(), log.Logger)
				room := session.EmoteSession().Room(id.RoomID(roomID))
				printed := 0
				for _, entry := range resolver.CompletionList(room, usage) {
					if prefix != "" && !matchesPrefix(entry, prefix) {
						continue
					}
					if limit > 0 && printed >= limit {
						break
					}
					printEmoji(cmd, entry)
					printed++
				}
				if printed == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No matches")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&roomID, "room", "r", "", "room ID providing the context")
	cmd.Flags().StringVar(&usageName, "usage", "emoticon", "complete for emoticon or sticker use")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to print, 0 for all")
	return cmd
}

func parseUsage(name string) (emotes.Usage, error) {
	switch name {
	case "emoticon":
		return emotes.UsageEmoticon, nil
	case "sticker":
		return emotes.UsageSticker, nil
	default:
		return "", fmt.Errorf("unknown usage %q, want emoticon or sticker", name)
	}
}

func matchesPrefix(entry emotes.Emoji, prefix string) bool {
	for _, alias := range entry.Aliases {
		if strings.HasPrefix(alias, prefix) {
			return true
		}
	}
	return false
}

func printEmoji(cmd *cobra.Command, entry emotes.Emoji) {
	out := cmd.OutOrStdout()
	if entry.IsCustom() {
		fmt.Fprintf(out, ":%s:\t%s\tfrom %s\n", entry.Shortcode, entry.URL, packName(entry.Pack))
	} else {
		fmt.Fprintf(out, ":%s:\t%s\n", entry.Shortcode, entry.Unicode)
	}
}
