// Copyright 2024-2026 Aiku AI

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-roomkit/pkg/emotes"
	"github.com/aiku/matrix-roomkit/pkg/mxsession"
)

func newPacksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packs",
		Short: "Inspect emoji and sticker packs",
	}
	cmd.AddCommand(newPacksListCmd())
	return cmd
}

func newPacksListCmd() *cobra.Command {
	var roomID string
	var withImages bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the packs usable in a room, highest priority first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncedSession(cmd, func(ctx context.Context, session *mxsession.Session) error {
				resolver := emotes.NewResolver(session.EmoteSession(), log.Logger)
				room := session.EmoteSession().Room(id.RoomID(roomID))
				if roomID != "" && room == nil {
					log.Warn().Str("room_id", roomID).Msg("Room not in sync data, listing only personal and global packs")
				}
				packs := resolver.RelevantPacks(room)
				out := cmd.OutOrStdout()
				if len(packs) == 0 {
					fmt.Fprintln(out, "No packs found")
					return nil
				}
				for _, pack := range packs {
					fmt.Fprintf(out, "%s (%d images, %s)\n", packName(pack), len(pack.Images), packUsageLabel(pack))
					if pack.Attribution != "" {
						fmt.Fprintf(out, "  attribution: %s\n", pack.Attribution)
					}
					if withImages {
						for _, img := range pack.Images {
							fmt.Fprintf(out, "  :%s: %s\n", img.Shortcode, img.URL)
						}
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&roomID, "room", "r", "", "room ID providing the context, e.g. !abc:example.com")
	cmd.Flags().BoolVar(&withImages, "images", false, "list each pack's images too")
	return cmd
}

func packName(pack *emotes.ImagePack) string {
	if pack == nil {
		return ""
	}
	if pack.DisplayName != "" {
		return pack.DisplayName
	}
	return string(pack.ID)
}

func packUsageLabel(pack *emotes.ImagePack) string {
	emoticon := pack.AllowsUsage(emotes.UsageEmoticon)
	sticker := pack.AllowsUsage(emotes.UsageSticker)
	switch {
	case emoticon && sticker:
		return "emoticons and stickers"
	case sticker:
		return "stickers"
	default:
		return "emoticons"
	}
}
