// Copyright 2024-2026 Remi Philippe
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"maunium.net/go/mautrix/id"

	"github.com/aiku/matrix-roomkit/pkg/mxsession"
	"github.com/aiku/matrix-roomkit/pkg/roomsettings"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Edit a room's name, topic and avatar",
	}
	cmd.AddCommand(newProfileSetCmd(), newProfileAvatarCmd())
	return cmd
}

func newProfileSetCmd() *cobra.Command {
	var roomID, name, topic string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save the room name and topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("topic") {
				return errors.New("nothing to change, pass --name or --topic")
			}
			return withProfileEditor(cmd, id.RoomID(roomID), func(ctx context.Context, room *mxsession.RoomState, editor *roomsettings.ProfileEditor) {
				// Flags left unset keep the room's current value.
				submitName, submitTopic := room.Name(), room.Topic()
				if cmd.Flags().Changed("name") {
					submitName = name
				}
				if cmd.Flags().Changed("topic") {
					submitTopic = topic
				}
				editor.Submit(ctx, submitName, submitTopic)
			})
		},
	}
	cmd.Flags().StringVarP(&roomID, "room", "r", "", "room ID to edit")
	_ = cmd.MarkFlagRequired("room")
	cmd.Flags().StringVar(&name, "name", "", "new room name")
	cmd.Flags().StringVar(&topic, "topic", "", "new room topic")
	return cmd
}

func newProfileAvatarCmd() *cobra.Command {
	var roomID string
	cmd := &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload an image and set it as the room avatar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			return withProfileEditor(cmd, id.RoomID(roomID), func(ctx context.Context, room *mxsession.RoomState, editor *roomsettings.ProfileEditor) {
				editor.UploadAvatar(ctx, data, filepath.Base(args[0]))
			})
		},
	}
	cmd.Flags().StringVarP(&roomID, "room", "r", "", "room ID to edit")
	_ = cmd.MarkFlagRequired("room")
	return cmd
}

// withProfileEditor runs one editor mutation and waits for its terminal
// status. Error statuses become command errors so the exit code reflects
// what the homeserver said.
func withProfileEditor(cmd *cobra.Command, roomID id.RoomID, run func(ctx context.Context, room *mxsession.RoomState, editor *roomsettings.ProfileEditor)) error {
	return withSyncedSession(cmd, func(ctx context.Context, session *mxsession.Session) error {
		room := session.Room(roomID)
		if room == nil {
			return fmt.Errorf("room %s is not in the sync data", roomID)
		}
		editor := roomsettings.NewProfileEditor(session, room, session, log.Logger)
		defer editor.Close()

		statuses := make(chan roomsettings.Status, 8)
		editor.OnStatus(func(st roomsettings.Status) {
			select {
			case statuses <- st:
			default:
			}
		})
		run(ctx, room, editor)

		out := cmd.OutOrStdout()
		for {
			select {
			case st := <-statuses:
				switch st.Kind {
				case roomsettings.StatusSaving:
					fmt.Fprintln(out, "Saving...")
				case roomsettings.StatusUploading:
					fmt.Fprintln(out, "Uploading...")
				case roomsettings.StatusSaved:
					fmt.Fprintln(out, "Saved")
					return nil
				case roomsettings.StatusError:
					return errors.New(st.Message)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
}
