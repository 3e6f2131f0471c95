package bot

import (
	"context"
	"errors"

	"github.com/Houeta/sheetmate-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

// RegisteredMiddleware checks that the Telegram account has an employee record.
func (b *Bot) RegisteredMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		userID := ctx.Sender().ID

		timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		_, err := b.svc.GetEmployeeByTelegramID(timeoutCtx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrEmployeeNotFound) {
				b.log.Info("Access denied, user not registered", "id", userID)
				return ctx.Send("Access to this function is denied. Please register via /start.")
			}
			b.log.Error("Failed to verify registration", "id", userID, "error", err)
			return ctx.Send("Access verification error.")
		}

		return next(ctx)
	}
}
