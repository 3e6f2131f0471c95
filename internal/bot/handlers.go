package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Houeta/sheetmate-bot/internal/repository"
	"gopkg.in/telebot.v4"
)

const handlerTimeout = 3 * time.Second

// ErrInternal is the generic retry-guidance reply; diagnostics stay in the logs.
const ErrInternal = "🚫 Internal server error, please try again later"

// startHandler processes command /start. It registers the employee record on
// first contact and asks for an email address until registration is complete.
func (b *Bot) startHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	name := senderName(ctx)
	b.log.Info("User started the bot", "id", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("start").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	employee, created, err := b.svc.GetOrCreateEmployee(timeoutCtx, userID, name)
	b.metrics.DBQueryDuration.WithLabelValues("get_or_create").Observe(time.Since(startTime).Seconds())
	if err != nil {
		b.log.Error("Failed to get or create employee", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send("👋 Welcome to Sheet Mate! Use /timesheet to get your timesheet template.")
	}

	if created {
		b.metrics.NewUsers.Inc()
	}

	if !employee.HasEmail() {
		b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingEmail})
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(fmt.Sprintf(
			"🎉 Welcome to Sheet Mate, %s!\n\n"+
				"We need your email to complete your registration.\n"+
				"Please reply with your email address:", ctx.Sender().FirstName))
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(fmt.Sprintf(
		"👋 Welcome back, %s!\n\nUse /timesheet to get your timesheet template.", ctx.Sender().FirstName))
}

// timesheetHandler handles the /timesheet command: it renders the timesheet
// for the current period, sends it as a document and removes the local copy.
func (b *Bot) timesheetHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	b.log.Info("User requested timesheet", "user", userID)
	b.metrics.CommandReceived.WithLabelValues("timesheet").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	employee, err := b.svc.GetEmployeeByTelegramID(timeoutCtx, userID)
	if err != nil {
		b.log.Error("Failed to get employee for timesheet", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(ErrInternal)
	}

	startTime := time.Now()
	filePath, err := b.svc.GenerateTimesheet(timeoutCtx, employee.Name)
	b.metrics.TimesheetGeneration.WithLabelValues("request").Observe(time.Since(startTime).Seconds())
	if err != nil {
		b.log.Error("Failed to generate timesheet", "error", err, "user", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send("❌ Error generating timesheet. Please try again.")
	}
	defer os.Remove(filePath)

	document := &telebot.Document{
		File:     telebot.FromDisk(filePath),
		FileName: filepath.Base(filePath),
		Caption:  "📊 Your timesheet template. Fill it and send it back!",
	}

	b.metrics.SentMessages.WithLabelValues("document").Inc()
	return ctx.Send(document)
}

// refreshHandler handles the /refresh command: it drops every cached period
// template so the next /timesheet renders a fresh one.
func (b *Bot) refreshHandler(ctx telebot.Context) error {
	b.log.Info("User requested template refresh", "user", ctx.Sender().ID)
	b.metrics.CommandReceived.WithLabelValues("refresh").Inc()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	if !b.svc.InvalidateTimesheets(timeoutCtx) {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send("💩 Failed to refresh templates, please try later")
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send("♻️ Cached timesheet templates dropped. The next /timesheet will be freshly rendered.")
}

// textHandler processes incoming text messages. When the user is in the
// awaiting-email state it validates and registers the address, reporting
// invalid input, conflicts and missing registration distinguishably.
func (b *Bot) textHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	state, ok := b.stateManager.Get(userID)

	if !ok || state.WaitingFor != stateAwaitingEmail {
		return ctx.Reply("🤖 I didn't understand that. Use /start to begin or /timesheet for your timesheet.")
	}

	email := strings.TrimSpace(ctx.Text())
	b.log.Debug("User is trying to register email", "user", userID, "email", email)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	startTime := time.Now()
	_, err := b.svc.UpdateEmployeeEmail(timeoutCtx, userID, email)
	b.metrics.DBQueryDuration.WithLabelValues("update_email").Observe(time.Since(startTime).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrInvalidEmail):
			b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingEmail})
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("❌ Invalid email format.\n\nPlease provide a valid email address:")
		case errors.Is(err, repository.ErrEmailExists):
			b.stateManager.Set(userID, UserState{WaitingFor: stateAwaitingEmail})
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("❌ This email is already registered.\n\nPlease provide a different email address:")
		case errors.Is(err, repository.ErrEmployeeNotFound):
			b.metrics.SentMessages.WithLabelValues("text").Inc()
			return ctx.Send("❌ You are not registered yet. Please use /start first.")
		default:
			b.log.Error("Failed to save email", "error", err, "user", userID)
			b.metrics.SentMessages.WithLabelValues("error").Inc()
			return ctx.Send("Sorry, there was an error saving your email. Please try /start again.")
		}
	}

	b.log.Info("User registered email", "user", userID)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(fmt.Sprintf(
		"✅ Perfect!\n\nEmail %s has been saved.\n\n"+
			"You're all set up! Use /timesheet to get your timesheet template.", email))
}

// documentHandler acknowledges filled timesheets sent back by the user.
func (b *Bot) documentHandler(ctx telebot.Context) error {
	document := ctx.Message().Document
	if document == nil {
		return nil
	}

	fileName := document.FileName
	if !strings.HasSuffix(fileName, ".xlsx") && !strings.HasSuffix(fileName, ".xls") {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send("❌ Please send an Excel file (.xlsx or .xls)")
	}

	b.log.Info("User sent a filled timesheet", "user", ctx.Sender().ID, "file", fileName)
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(fmt.Sprintf("📄 Received your timesheet: %s\n\nProcessing your timesheet...", fileName))
}

// senderName builds the display name from the Telegram profile.
func senderName(ctx telebot.Context) string {
	sender := ctx.Sender()
	return strings.TrimSpace(sender.FirstName + " " + sender.LastName)
}
