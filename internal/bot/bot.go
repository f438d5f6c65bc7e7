// Package bot is the Telegram surface of the pipeline: it turns the
// /donations command into a report request and delivers the result.
package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"donorbot-backend/internal/tmpfiles"
	"donorbot-backend/lib/scrapers/forum"
	"donorbot-backend/services/reports"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	tgbotapi "gopkg.in/telegram-bot-api.v4"
)

var tracer = otel.Tracer("bot")

const (
	msgHelp = "Пришлите /donations с ключевыми словами через запятую,\n" +
		"например: /donations сено, лошадь\n" +
		"Без ключевых слов отчёт строится по всем записям."
	msgFetchFailed   = "Не удалось получить данные с форума. Попробуйте позже."
	msgPersistFailed = "Отчёт построен, но сохранить файл не удалось."
	msgInternal      = "Что-то пошло не так. Попробуйте позже."
)

type Bot struct {
	api     *tgbotapi.BotAPI
	reports *reports.Service
	tmp     tmpfiles.Dir
}

func New(api *tgbotapi.BotAPI, reportsSvc *reports.Service, tmp tmpfiles.Dir) *Bot {
	return &Bot{
		api:     api,
		reports: reportsSvc,
		tmp:     tmp,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates, err := b.api.GetUpdatesChan(updateConfig)
	if err != nil {
		return err
	}
	slog.Info("bot is polling", "account", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			updates.Clear()
			return nil
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			// the report service serializes the heavy work, handling in
			// a goroutine just keeps polling responsive
			go b.handleCommand(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	ctx, span := tracer.Start(ctx, "bot:handleCommand")
	defer span.End()

	switch msg.Command() {
	case "donations", "report":
		b.handleReport(ctx, msg)
	case "start", "help":
		b.reply(ctx, msg.Chat.ID, msgHelp)
	default:
		b.reply(ctx, msg.Chat.ID, msgHelp)
	}
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) {
	ctx, span := tracer.Start(ctx, "bot:handleReport")
	defer span.End()

	keywords := msg.CommandArguments()
	slog.InfoContext(ctx, "report requested", "chat", msg.Chat.ID, "keywords", keywords)

	result, err := b.reports.Generate(ctx, reports.Request{Keywords: keywords})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report generation failed")

		var fetchErr *forum.FetchError
		if errors.As(err, &fetchErr) {
			slog.ErrorContext(ctx, "scrape failed", "page", fetchErr.Page, "err", err)
			b.reply(ctx, msg.Chat.ID, msgFetchFailed)
			return
		}
		slog.ErrorContext(ctx, "report failed", "err", err)
		b.reply(ctx, msg.Chat.ID, msgInternal)
		return
	}

	b.reply(ctx, msg.Chat.ID, result.Summary)

	path, err := b.tmp.Write(result.Filename, func(w io.Writer) error {
		return result.Workbook.Write(w)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report persistence failed")
		slog.ErrorContext(ctx, "failed to persist report", "err", err)
		b.reply(ctx, msg.Chat.ID, msgPersistFailed)
		return
	}

	document := tgbotapi.NewDocumentUpload(msg.Chat.ID, path)
	if _, err := b.api.Send(document); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "document upload failed")
		slog.ErrorContext(ctx, "failed to send report document", "err", err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		slog.ErrorContext(ctx, "failed to send message", "chat", chatID, "err", err)
	}
}
