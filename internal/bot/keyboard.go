package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"saave-bot/internal/intake"
)

const lettersPerRow = 5

// promptKeyboard builds the reply keyboard for a prompt: one button per
// option, letter buttons for multi-select, a contact button on the phone
// step and the back button when there is a previous question.
func promptKeyboard(p intake.Prompt) any {
	if p.Done {
		return tgbotapi.NewRemoveKeyboard(true)
	}

	var rows [][]tgbotapi.KeyboardButton
	switch {
	case p.MultiSelect:
		var row []tgbotapi.KeyboardButton
		for _, o := range p.Options {
			row = append(row, tgbotapi.NewKeyboardButton(o.Letter))
			if len(row) == lettersPerRow {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	case len(p.Options) > 0:
		for _, o := range p.Options {
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(intake.ButtonLabel(o)),
			))
		}
	case p.Step == intake.StepPhone:
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonContact("📱 Compartir mi número"),
		))
	}

	if p.CanGoBack {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(intake.BackCommand),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	return tgbotapi.NewReplyKeyboard(rows...)
}
