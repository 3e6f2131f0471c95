package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/metrics"
	"github.com/Houeta/sheetmate-bot/internal/models"
	"gopkg.in/telebot.v4"
)

// Service defines the facade operations the bot consumes. It is satisfied by
// service.Service regardless of whether a cache backend is configured.
type Service interface {
	GetOrCreateEmployee(ctx context.Context, telegramID int64, name string) (models.Employee, bool, error)
	GetEmployeeByTelegramID(ctx context.Context, telegramID int64) (models.Employee, error)
	UpdateEmployeeEmail(ctx context.Context, telegramID int64, email string) (models.Employee, error)
	GenerateTimesheet(ctx context.Context, employeeName string) (string, error)
	InvalidateTimesheets(ctx context.Context) bool
}

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	log          *slog.Logger
	svc          Service
	metrics      *metrics.Metrics
	stateManager *StateManager
}

// NewBot creates a new bot with the given token.
func NewBot(
	log *slog.Logger,
	svc Service,
	appMetrics *metrics.Metrics,
	token string,
	poller time.Duration,
) (*Bot, error) {
	tgBot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", tgBot.Me.Username)

	botInstance := &Bot{
		bot:          tgBot,
		log:          log,
		svc:          svc,
		metrics:      appMetrics,
		stateManager: NewStateManager(),
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/timesheet", b.timesheetHandler, b.RegisteredMiddleware)
	b.bot.Handle("/refresh", b.refreshHandler)
	b.bot.Handle(telebot.OnText, b.textHandler)
	b.bot.Handle(telebot.OnDocument, b.documentHandler)
}
