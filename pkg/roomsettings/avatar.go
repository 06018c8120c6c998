// Copyright 2024-2026 Aiku AI

package roomsettings

import (
	"bytes"
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sapphi-red/midec"
	_ "github.com/sapphi-red/midec/gif"
	_ "github.com/sapphi-red/midec/png"
	_ "github.com/sapphi-red/midec/webp"
	"maunium.net/go/mautrix/event"
)

// UploadAvatar sniffs the image type, uploads the bytes to the media repo
// and points m.room.avatar at the result. Non-image data is rejected before
// anything is uploaded. Runs asynchronously like Submit.
func (e *ProfileEditor) UploadAvatar(ctx context.Context, data []byte, fileName string) {
	go e.uploadAvatar(ctx, data, fileName)
}

func (e *ProfileEditor) uploadAvatar(ctx context.Context, data []byte, fileName string) {
	if !e.CanEditAvatar() {
		e.notify(Status{Kind: StatusError, Message: "You are not allowed to change the room avatar"})
		return
	}
	contentType := sniffImageType(data)
	if contentType == "" {
		e.notify(Status{Kind: StatusError, Message: "The selected file is not an image"})
		return
	}

	e.notify(Status{Kind: StatusUploading})
	uri, err := e.client.UploadMedia(ctx, data, contentType, fileName)
	if err != nil {
		e.log.Error().Err(err).Msg("Failed to upload avatar")
		e.notify(Status{Kind: StatusError, Message: statusMessage(err, "Failed to upload avatar")})
		return
	}
	e.log.Debug().Str("content_uri", uri.String()).Str("mime_type", contentType).Msg("Avatar uploaded")

	content := &event.RoomAvatarEventContent{URL: uri.CUString()}
	if err := e.client.SendStateEvent(ctx, e.room.ID(), event.StateRoomAvatar, "", content); err != nil {
		e.log.Error().Err(err).Msg("Failed to set room avatar")
		e.notify(Status{Kind: StatusError, Message: statusMessage(err, "Failed to set room avatar")})
		return
	}
	e.notify(Status{Kind: StatusSaved})
}

// sniffImageType returns the MIME type to upload the data as, or empty when
// the data is not an image. Animated PNGs are detected as plain image/png
// and need the apng type for clients to animate them.
func sniffImageType(data []byte) string {
	mime := mimetype.Detect(data)
	contentType := mime.String()
	if !strings.HasPrefix(contentType, "image/") {
		return ""
	}
	animated, err := midec.IsAnimated(bytes.NewReader(data))
	if err == nil && animated && mime.Is("image/png") {
		return "image/apng"
	}
	return contentType
}
