package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/media"
	"github.com/kbukum/transcribot/observability"
	"github.com/kbukum/transcribot/store"
	"github.com/kbukum/transcribot/telegram"
	"github.com/kbukum/transcribot/validation"
)

// API is the part of the Bot API the handler calls.
type API interface {
	ResolveDownloadURL(ctx context.Context, fileID string) (string, error)
	SendMessage(ctx context.Context, chatID int64, text string, replyTo int64) error
}

// Store is the persistence the handler needs.
type Store interface {
	UpsertAccount(ctx context.Context, account *store.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	ListAccounts(ctx context.Context, offset, limit int) ([]store.Account, error)
	CountAccounts(ctx context.Context) (int64, error)
	EnqueueJob(ctx context.Context, job *store.Job) error
}

// submission is the validated shape of an accepted media message.
type submission struct {
	ChatID   int64  `json:"chat_id" validate:"required"`
	FileID   string `json:"file_id" validate:"required"`
	Duration int    `json:"duration" validate:"gte=0"`
	MimeType string `json:"mime_type" validate:"omitempty,media_mime"`
	FileURL  string `json:"file_url" validate:"required,url"`
	FilePath string `json:"file_path" validate:"required"`
}

// Handler turns updates into accounts and queued jobs.
type Handler struct {
	cfg        Config
	api        API
	store      Store
	scratchDir string
	metrics    *observability.Metrics
	log        *logger.Logger
}

// NewHandler creates a Handler. Downloads are placed under scratchDir.
func NewHandler(cfg Config, api API, st Store, scratchDir string, metrics *observability.Metrics, log *logger.Logger) (*Handler, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		cfg:        cfg,
		api:        api,
		store:      st,
		scratchDir: scratchDir,
		metrics:    metrics,
		log:        log.WithComponent("bot"),
	}, nil
}

// HandleUpdate dispatches one update. Replies to the user are sent before
// an error is returned, so the caller only logs.
func (h *Handler) HandleUpdate(ctx context.Context, u telegram.Update) error {
	kind := updateKind(u)
	ctx, span := observability.StartSpan(ctx, observability.SpanBotUpdate, trace.WithAttributes(
		attribute.Int64("update.id", u.UpdateID),
		attribute.String("update.kind", kind),
	))
	defer span.End()
	h.metrics.RecordUpdate(ctx, kind)

	var err error
	switch kind {
	case "membership":
		if u.MyChatMember.Revoked() {
			err = h.OnMembershipRevoked(ctx, u.MyChatMember.Chat.ID)
		}
	case "start":
		h.rememberSender(ctx, u.Message)
		err = h.reply(ctx, u.Message, welcomeText(h.cfg.Contact))
	case "users":
		h.rememberSender(ctx, u.Message)
		err = h.listUsers(ctx, u.Message)
	case "media":
		h.rememberSender(ctx, u.Message)
		m, _ := u.Message.Media()
		err = h.handleMedia(ctx, u.Message, m)
	}
	observability.SetSpanError(ctx, err)
	return err
}

func updateKind(u telegram.Update) string {
	switch {
	case u.MyChatMember != nil:
		return "membership"
	case u.Message == nil:
		return "ignored"
	}
	switch command(u.Message.Text) {
	case "start":
		return "start"
	case "users":
		return "users"
	}
	if _, ok := u.Message.Media(); ok {
		return "media"
	}
	return "ignored"
}

// command returns the bot command of text without the slash or @botname
// suffix, or "" when text is not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(text[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}

// OnMembershipRevoked forgets a chat that blocked or removed the bot.
func (h *Handler) OnMembershipRevoked(ctx context.Context, chatID int64) error {
	if err := h.store.DeleteAccount(ctx, chatID); err != nil {
		return fmt.Errorf("delete account %d: %w", chatID, err)
	}
	h.log.Info("Account removed", logger.Fields(logger.FieldChatID, chatID))
	return nil
}

// rememberSender upserts the sender. A failure is logged only.
func (h *Handler) rememberSender(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil {
		return
	}
	account := &store.Account{
		ID:           msg.From.ID,
		Username:     msg.From.Username,
		FirstName:    msg.From.FirstName,
		IsBot:        msg.From.IsBot,
		ChatType:     msg.Chat.Type,
		LanguageCode: msg.From.LanguageCode,
	}
	if err := h.store.UpsertAccount(ctx, account); err != nil {
		h.log.Warn("Account not saved", logger.MergeWithError(logger.Fields(logger.FieldChatID, msg.From.ID), err))
	}
}

func (h *Handler) listUsers(ctx context.Context, msg *telegram.Message) error {
	var sender int64
	if msg.From != nil {
		sender = msg.From.ID
	}
	if !h.cfg.isAdmin(sender) {
		return h.reply(ctx, msg, MsgRestricted)
	}

	total, err := h.store.CountAccounts(ctx)
	if err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if total == 0 {
		return h.reply(ctx, msg, usersPage(0, nil))
	}
	for offset := 0; int64(offset) < total; offset += UsersPageSize {
		accounts, err := h.store.ListAccounts(ctx, offset, UsersPageSize)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		if len(accounts) == 0 {
			break
		}
		if err := h.reply(ctx, msg, usersPage(total, accounts)); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) handleMedia(ctx context.Context, msg *telegram.Message, m telegram.Media) error {
	log := h.log.WithFields(logger.Fields(
		logger.FieldChatID, msg.Chat.ID,
		logger.FieldMessageID, msg.MessageID,
		logger.FieldFileID, m.FileID,
	))

	if m.Duration > h.cfg.MaxDuration {
		log.Info("Media rejected", logger.Fields("duration", m.Duration, "limit", h.cfg.MaxDuration))
		return h.reply(ctx, msg, MsgTooLong)
	}

	url, err := h.api.ResolveDownloadURL(ctx, m.FileID)
	if err != nil {
		return h.failed(ctx, msg, fmt.Errorf("resolve download url: %w", err))
	}

	job := &store.Job{
		MessageID: msg.MessageID,
		ChatID:    msg.Chat.ID,
		Date:      time.Unix(msg.Date, 0).UTC(),
		FileID:    m.FileID,
		Duration:  m.Duration,
		MimeType:  m.MimeType,
		FileSize:  m.FileSize,
		FileName:  m.FileName,
		FileURL:   url,
		FilePath:  media.LocalPath(h.scratchDir, m.FileID, m.MimeType),
	}
	if msg.From != nil {
		job.UserID = msg.From.ID
	}
	if job.FileName == "" {
		job.FileName = media.DefaultFileName
	}

	if err := validation.Validate(submission{
		ChatID:   job.ChatID,
		FileID:   job.FileID,
		Duration: job.Duration,
		MimeType: job.MimeType,
		FileURL:  job.FileURL,
		FilePath: job.FilePath,
	}); err != nil {
		return h.failed(ctx, msg, err)
	}

	if err := h.store.EnqueueJob(ctx, job); err != nil {
		return h.failed(ctx, msg, fmt.Errorf("enqueue job: %w", err))
	}
	log.Info("Job queued", logger.Fields(logger.FieldJobID, job.ID, "duration", job.Duration))
	return h.reply(ctx, msg, MsgAccepted)
}

// failed sends the generic failure reply and returns cause.
func (h *Handler) failed(ctx context.Context, msg *telegram.Message, cause error) error {
	if err := h.reply(ctx, msg, MsgFailed); err != nil {
		h.log.Warn("Failure reply not sent", logger.ErrorFields("reply", err))
	}
	return cause
}

func (h *Handler) reply(ctx context.Context, msg *telegram.Message, text string) error {
	if err := h.api.SendMessage(ctx, msg.Chat.ID, text, 0); err != nil {
		return apperrors.DeliveryFailed("send reply", err).WithDetail("chat_id", msg.Chat.ID)
	}
	return nil
}
