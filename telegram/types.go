package telegram

import "strings"

// Chat member statuses that mean the bot can no longer reach the chat.
const (
	MemberLeft   = "left"
	MemberKicked = "kicked"
)

// Update is one incoming event.
type Update struct {
	UpdateID     int64              `json:"update_id"`
	Message      *Message           `json:"message,omitempty"`
	MyChatMember *ChatMemberUpdated `json:"my_chat_member,omitempty"`
}

// Message is an incoming or sent message.
type Message struct {
	MessageID int64     `json:"message_id"`
	From      *User     `json:"from,omitempty"`
	Chat      Chat      `json:"chat"`
	Date      int64     `json:"date"`
	Text      string    `json:"text,omitempty"`
	Audio     *Audio    `json:"audio,omitempty"`
	Voice     *Voice    `json:"voice,omitempty"`
	Video     *Video    `json:"video,omitempty"`
	Document  *Document `json:"document,omitempty"`
}

// User is a Telegram user or bot.
type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// Chat is a conversation.
type Chat struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type Audio struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

type Voice struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

type Video struct {
	FileID   string `json:"file_id"`
	Duration int    `json:"duration"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// Document is a generic file. It carries no duration.
type Document struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// File is the result of getFile. FilePath is valid for at least one hour.
type File struct {
	FileID   string `json:"file_id"`
	FileSize int64  `json:"file_size,omitempty"`
	FilePath string `json:"file_path,omitempty"`
}

// ChatMemberUpdated reports a change of the bot's own membership.
type ChatMemberUpdated struct {
	Chat          Chat       `json:"chat"`
	From          User       `json:"from"`
	Date          int64      `json:"date"`
	OldChatMember ChatMember `json:"old_chat_member"`
	NewChatMember ChatMember `json:"new_chat_member"`
}

type ChatMember struct {
	Status string `json:"status"`
	User   User   `json:"user"`
}

// Revoked reports whether the bot was removed or blocked.
func (u *ChatMemberUpdated) Revoked() bool {
	s := u.NewChatMember.Status
	return s == MemberLeft || s == MemberKicked
}

// Media is the transcribable attachment of a message, whatever its kind.
type Media struct {
	FileID   string
	Duration int
	MimeType string
	FileSize int64
	FileName string
}

// Media returns the message's audio, voice or video attachment, or an
// audio/video document, and false when there is none.
func (m *Message) Media() (Media, bool) {
	switch {
	case m.Audio != nil:
		return Media{m.Audio.FileID, m.Audio.Duration, m.Audio.MimeType, m.Audio.FileSize, m.Audio.FileName}, true
	case m.Voice != nil:
		return Media{m.Voice.FileID, m.Voice.Duration, m.Voice.MimeType, m.Voice.FileSize, ""}, true
	case m.Video != nil:
		return Media{m.Video.FileID, m.Video.Duration, m.Video.MimeType, m.Video.FileSize, m.Video.FileName}, true
	case m.Document != nil && isAudioVideo(m.Document.MimeType):
		return Media{m.Document.FileID, 0, m.Document.MimeType, m.Document.FileSize, m.Document.FileName}, true
	}
	return Media{}, false
}

func isAudioVideo(mime string) bool {
	return strings.HasPrefix(mime, "audio/") || strings.HasPrefix(mime, "video/")
}

type responseParameters struct {
	RetryAfter int `json:"retry_after,omitempty"`
}

type apiResponse[T any] struct {
	OK          bool                `json:"ok"`
	Result      T                   `json:"result"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

type replyParameters struct {
	MessageID                int64 `json:"message_id"`
	AllowSendingWithoutReply bool  `json:"allow_sending_without_reply"`
}
