package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/quote"
	"saave-bot/internal/report"
)

// notifyAdmins sends the lead summary and, when available, the workbook to
// every admin chat.
func (b *Bot) notifyAdmins(rec *quote.Record, workbook []byte) {
	if len(b.opts.AdminChatIDs) == 0 {
		b.logger.Debug("Admin notifications disabled - no admin chats configured")
		return
	}

	text := formatAdminNotification(rec)
	for _, chatID := range b.opts.AdminChatIDs {
		if chatID == 0 {
			continue
		}
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			b.logger.Error("Failed to send admin notification",
				zap.Int64("admin_chat_id", chatID),
				zap.String("reference", rec.ID),
				zap.Error(err))
			continue
		}
		if workbook == nil {
			continue
		}
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: report.QuotationFilename(rec), Bytes: workbook})
		doc.Caption = fmt.Sprintf("📊 Cotización %s", shortRef(rec.ID))
		if _, err := b.api.Send(doc); err != nil {
			b.logger.Error("Failed to send workbook to admin",
				zap.Int64("admin_chat_id", chatID),
				zap.String("reference", rec.ID),
				zap.Error(err))
		}
	}
}

// NotifyDocument tells the client that the generated document is ready.
func (b *Bot) NotifyDocument(_ context.Context, chatID int64, reference, url string) error {
	text := fmt.Sprintf("📄 Su propuesta económica %s está lista:\n%s", shortRef(reference), url)
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send document notice: %w", err)
	}
	return nil
}

func formatAdminNotification(rec *quote.Record) string {
	return fmt.Sprintf(
		"🏠 Nueva cotización %s\n\n"+
			"👤 Cliente: %s\n"+
			"📱 Teléfono: %s\n"+
			"📧 Correo: %s\n"+
			"──────────────────\n"+
			"Esquema: %s\n"+
			"📏 Área total: %s m²\n"+
			"💰 Total: %s\n"+
			"📅 Fecha: %s\n"+
			"Ref: %s",
		shortRef(rec.ID),
		rec.Contact.Name,
		rec.Contact.Phone,
		rec.Contact.Email,
		rec.Scheme,
		quote.FormatArea(rec.Area.Total),
		quote.FormatMoney(rec.Cost.Total),
		rec.Payload.Date,
		rec.ID,
	)
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return ref[:8]
	}
	return ref
}
