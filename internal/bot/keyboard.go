package bot

import (
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/contract-bot/internal/conversation"
)

// keyboard lays out reply.Choices as an inline keyboard, reply.Columns
// buttons per row. It returns nil when there is nothing to choose.
func keyboard(reply conversation.Reply) *models.InlineKeyboardMarkup {
	if len(reply.Choices) == 0 {
		return nil
	}

	cols := max(reply.Columns, 1)
	rows := make([][]models.InlineKeyboardButton, 0, (len(reply.Choices)+cols-1)/cols)
	for start := 0; start < len(reply.Choices); start += cols {
		end := min(start+cols, len(reply.Choices))
		row := make([]models.InlineKeyboardButton, 0, end-start)
		for _, c := range reply.Choices[start:end] {
			row = append(row, models.InlineKeyboardButton{
				Text:         c.Label,
				CallbackData: c.Value,
			})
		}
		rows = append(rows, row)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
