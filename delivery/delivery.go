// Package delivery sends transcripts and artifacts back to the originating
// conversation.
package delivery

import (
	"context"
	"os"

	apperrors "github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/logger"
)

const (
	// MaxMessageLength is the platform limit for one text message, in runes.
	MaxMessageLength = 4096
	// TruncationSuffix marks a shortened message.
	TruncationSuffix = "... (truncated)"

	successPrefix = "✅ Conversion completed successfully:\n\n"
	failurePrefix = "❌ Conversion failed:\n"
)

// Messenger is the outbound side of the messaging platform.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error
	SendDocument(ctx context.Context, chatID int64, path, displayName string, replyTo int64) error
}

// Gateway sends text and files, enforcing the message length limit.
type Gateway struct {
	messenger Messenger
	log       *logger.Logger
}

// NewGateway creates a delivery gateway.
func NewGateway(m Messenger, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Nop()
	}
	return &Gateway{messenger: m, log: log.WithComponent("delivery")}
}

// Truncate shortens text to at most MaxMessageLength runes, ending with
// TruncationSuffix when anything was cut.
func Truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxMessageLength {
		return text
	}
	keep := MaxMessageLength - len([]rune(TruncationSuffix))
	return string(runes[:keep]) + TruncationSuffix
}

// SendText sends a reply, truncated to the platform limit.
func (g *Gateway) SendText(ctx context.Context, chatID int64, text string, replyTo int64) error {
	if err := g.messenger.SendMessage(ctx, chatID, Truncate(text), replyTo); err != nil {
		return apperrors.DeliveryFailed("send message", err).WithDetail("chat_id", chatID)
	}
	return nil
}

// SendFile uploads the file at localPath, read at call time. An absent file
// is a NotFound error.
func (g *Gateway) SendFile(ctx context.Context, chatID int64, localPath, displayName string, replyTo int64) error {
	if _, err := os.Stat(localPath); err != nil {
		if os.IsNotExist(err) {
			return apperrors.NotFound("artifact", localPath).WithCause(err)
		}
		return apperrors.DeliveryFailed("read artifact", err)
	}
	if err := g.messenger.SendDocument(ctx, chatID, localPath, displayName, replyTo); err != nil {
		return apperrors.DeliveryFailed("send file", err).WithDetail("chat_id", chatID)
	}
	g.log.Debug("File delivered", logger.Fields(logger.FieldChatID, chatID, logger.FieldPath, localPath))
	return nil
}

// SendSuccess replies with a completed transcript.
func (g *Gateway) SendSuccess(ctx context.Context, chatID int64, transcript string, replyTo int64) error {
	return g.SendText(ctx, chatID, successPrefix+transcript, replyTo)
}

// SendFailure replies with a failure notice carrying reason.
func (g *Gateway) SendFailure(ctx context.Context, chatID int64, reason string, replyTo int64) error {
	return g.SendText(ctx, chatID, failurePrefix+reason, replyTo)
}
