package bot

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/intake"
	"saave-bot/internal/leads"
	"saave-bot/internal/report"
	"saave-bot/internal/storage"
)

const (
	welcomeText = "¡Hola! 👋 Vamos a cotizar el diseño de su casa.\n\n" +
		"Responda cada pregunta con la letra de la opción o usando los botones. " +
		"Puede volver a la pregunta anterior con \"⬅️ Atrás\" o cancelar con /cancelar."
	helpText = "Comandos disponibles:\n" +
		"/start - Comenzar una nueva cotización\n" +
		"/atras - Volver a la pregunta anterior\n" +
		"/cancelar - Cancelar la cotización en curso\n" +
		"/ayuda - Mostrar esta ayuda"
	genericErrorText = "Ocurrió un error al procesar su respuesta. Intente de nuevo en unos minutos."
)

func (b *Bot) handleStart(ctx context.Context, chatID int64, _ string) {
	session := intake.NewSession()
	if err := b.sessions.SaveSession(ctx, chatID, session); err != nil {
		b.logger.Error("Failed to start session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, genericErrorText)
		return
	}
	b.metrics.SessionsStarted.Inc()

	b.sendText(chatID, welcomeText)
	b.sendPrompt(chatID, b.driver.Current(session), "")
}

func (b *Bot) handleHelp(_ context.Context, chatID int64, _ string) {
	b.sendText(chatID, helpText)
}

func (b *Bot) handleCancel(ctx context.Context, chatID int64, _ string) {
	if err := b.sessions.DropSession(ctx, chatID); err != nil {
		b.logger.Error("Failed to drop session on cancel",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	msg := tgbotapi.NewMessage(chatID, "Cotización cancelada. Envíe /start cuando quiera comenzar de nuevo.")
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.sendMessage(msg)
}

func (b *Bot) handleBack(ctx context.Context, chatID int64, _ string) {
	b.handleAnswer(ctx, chatID, intake.BackCommand)
}

func isAnswerError(err error) bool {
	return errors.Is(err, intake.ErrUnknownOption) ||
		errors.Is(err, intake.ErrInvalidName) ||
		errors.Is(err, intake.ErrInvalidPhone) ||
		errors.Is(err, intake.ErrInvalidEmail)
}

// handleAnswer feeds one message to the intake driver and replies with the
// next question, a re-prompt, or the finished quotation.
func (b *Bot) handleAnswer(ctx context.Context, chatID int64, text string) {
	session, err := b.sessions.GetSession(ctx, chatID)
	if err != nil {
		b.logger.Error("Failed to get session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, genericErrorText)
		return
	}
	if session == nil {
		b.sendText(chatID, "Envíe /start para comenzar su cotización.")
		return
	}

	step := session.Step
	prompt, err := b.driver.Advance(session, text)
	switch {
	case err == nil:
	case isAnswerError(err):
		b.metrics.Answers.WithLabelValues(string(step), "rejected").Inc()
		b.sendPrompt(chatID, prompt, err.Error())
		return
	case errors.Is(err, intake.ErrFinished):
		b.sendText(chatID, "✅ Su cotización ya fue generada. Envíe /start para hacer una nueva.")
		return
	default:
		b.logger.Error("Failed to advance intake",
			zap.Int64("chat_id", chatID),
			zap.String("step", string(step)),
			zap.Error(err))
		b.sendError(chatID, genericErrorText)
		return
	}
	b.metrics.Answers.WithLabelValues(string(step), "accepted").Inc()

	if prompt.Done {
		b.complete(ctx, chatID, session)
		return
	}

	if err := b.sessions.SaveSession(ctx, chatID, session); err != nil {
		b.logger.Error("Failed to save session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		b.sendError(chatID, genericErrorText)
		return
	}
	b.sendPrompt(chatID, prompt, "")
}

func (b *Bot) complete(ctx context.Context, chatID int64, session *intake.Session) {
	allowed, err := b.sessions.AllowQuote(ctx, chatID, b.opts.RateLimit, b.opts.RateWindow)
	counted := err == nil && b.opts.RateLimit > 0
	if err != nil {
		b.logger.Warn("Rate limit check failed, allowing quotation",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		allowed = true
	}
	if !allowed {
		b.metrics.RateLimited.Inc()
		b.dropSession(ctx, chatID)
		msg := tgbotapi.NewMessage(chatID, "⏳ Ha alcanzado el número máximo de cotizaciones por hoy. "+
			"Un asesor puede ayudarle directamente.")
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
		b.sendMessage(msg)
		return
	}

	res, err := b.leads.Create(ctx, leads.Request{
		Contact:         session.Contact,
		Responses:       session.Responses,
		AdditionalRooms: session.AdditionalRooms,
		ChatID:          chatID,
		Source:          storage.SourceTelegram,
	})
	if err != nil {
		b.logger.Error("Failed to create quotation",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		if counted {
			if err := b.sessions.ReleaseQuote(ctx, chatID); err != nil {
				b.logger.Warn("Failed to release quota slot",
					zap.Int64("chat_id", chatID),
					zap.Error(err))
			}
		}
		b.dropSession(ctx, chatID)
		b.sendError(chatID, "No fue posible generar la cotización. Envíe /start para intentarlo de nuevo.")
		return
	}
	rec := res.Record

	session.QuoteID = rec.ID
	if err := b.sessions.SaveSession(ctx, chatID, session); err != nil {
		b.logger.Warn("Failed to save finished session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}

	msg := tgbotapi.NewMessage(chatID, rec.Text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.sendMessage(msg)

	workbook, err := report.QuotationWorkbook(rec)
	if err != nil {
		b.logger.Error("Failed to build quotation workbook",
			zap.String("reference", rec.ID),
			zap.Error(err))
	} else {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: report.QuotationFilename(rec), Bytes: workbook})
		doc.Caption = "📎 Propuesta económica"
		b.sendMessage(doc)
	}

	b.notifyAdmins(rec, workbook)
}

func (b *Bot) dropSession(ctx context.Context, chatID int64) {
	if err := b.sessions.DropSession(ctx, chatID); err != nil {
		b.logger.Error("Failed to drop session",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func (b *Bot) sendPrompt(chatID int64, p intake.Prompt, notice string) {
	text := p.Render()
	if notice != "" {
		text = notice + "\n\n" + text
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = promptKeyboard(p)
	b.sendMessage(msg)
}
