package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xaenox/mindmesh/internal/models"
	"github.com/xaenox/mindmesh/internal/planner"
	"github.com/xaenox/mindmesh/internal/storage"
)

const historySize = 5

type Bot struct {
	api     *tgbotapi.BotAPI
	storage storage.Storage
	service *planner.Service
	logger  *zap.Logger
}

func New(token string, storage storage.Storage, service *planner.Service, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	return &Bot{
		api:     api,
		storage: storage,
		service: service,
		logger:  logger,
	}, nil
}

// Start polls for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("Bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			switch {
			case update.CallbackQuery != nil:
				go b.handleCallback(ctx, update.CallbackQuery)
			case update.Message != nil:
				go b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func userKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}
	if strings.TrimSpace(content) == "" {
		b.sendMessage(message.Chat.ID, "Send me some text describing what's on your mind.")
		return
	}

	b.handleThought(ctx, message, content)
}

// handleThought organizes free text into a new plan and saves its tasks.
func (b *Bot) handleThought(ctx context.Context, message *tgbotapi.Message, content string) {
	userID := userKey(message.From.ID)
	planID := uuid.New().String()

	out, err := b.service.Organize(ctx, userID, planID, content)
	if err != nil {
		b.logger.Error("Failed to organize input",
			zap.Error(err),
			zap.String("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't organize that. Please try again.")
		return
	}
	b.logWarnings(userID, out.Warnings)

	plan := &models.Plan{
		ID:      planID,
		UserID:  userID,
		Title:   planTitle(content),
		Thought: content,
	}
	if err := b.storage.CreatePlan(ctx, plan); err != nil {
		b.logger.Error("Failed to save plan",
			zap.Error(err),
			zap.String("plan_id", planID),
			zap.String("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't save your plan. Please try again.")
		return
	}
	if _, err := b.storage.SaveWorkItems(ctx, planID, planner.WorkItems(out.Result)); err != nil {
		b.logger.Error("Failed to save work items",
			zap.Error(err),
			zap.String("plan_id", planID),
			zap.String("user_id", userID))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatPlan(out.Result))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.ReplyToMessageID = message.MessageID
	if out.InteractionID != "" {
		msg.ReplyMarkup = feedbackKeyboard(out.InteractionID)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send plan",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	case "dashboard":
		b.handleDashboard(ctx, message)
	case "history":
		b.handleHistory(ctx, message)
	case "stats":
		b.handleStats(ctx, message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome to MindMesh! 🧠
Tell me what's on your mind: goals, ideas, half-finished thoughts. I'll turn it into an organized plan with categories and a todo board.

Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message
/dashboard - Prioritized dashboard of your latest plan
/history - Your recent AI interactions
/stats - What I know about your tasks so far

Any other text becomes a new plan.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) handleDashboard(ctx context.Context, message *tgbotapi.Message) {
	userID := userKey(message.From.ID)

	plan, err := b.storage.LatestPlan(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		b.sendMessage(message.Chat.ID, "You don't have a plan yet. Send me your thoughts first.")
		return
	}
	if err != nil {
		b.logger.Error("Failed to load plan", zap.Error(err), zap.String("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your plan.")
		return
	}

	items, err := b.storage.ListWorkItems(ctx, plan.ID)
	if err != nil {
		b.logger.Error("Failed to load work items", zap.Error(err), zap.String("plan_id", plan.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't load your plan.")
		return
	}
	if len(items) == 0 {
		b.sendMessage(message.Chat.ID, "Your latest plan has no tasks yet.")
		return
	}

	out, err := b.service.Dashboard(ctx, userID, *plan, items)
	if err != nil {
		var dashErr *planner.DashboardGenerationError
		if errors.As(err, &dashErr) {
			b.logger.Warn("Dashboard generation failed",
				zap.Error(err),
				zap.String("stage", string(dashErr.Stage)),
				zap.String("plan_id", plan.ID))
			b.sendErrorMessage(message.Chat.ID, "I couldn't build a dashboard right now. Please try again in a moment.")
			return
		}
		b.logger.Error("Failed to build dashboard", zap.Error(err), zap.String("plan_id", plan.ID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, something went wrong while building your dashboard.")
		return
	}
	b.logWarnings(userID, out.Warnings)

	msg := tgbotapi.NewMessage(message.Chat.ID, formatDashboard(out.Result, items))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if out.InteractionID != "" {
		msg.ReplyMarkup = feedbackKeyboard(out.InteractionID)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send dashboard",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleHistory(ctx context.Context, message *tgbotapi.Message) {
	userID := userKey(message.From.ID)

	interactions, err := b.storage.ListInteractions(ctx, userID, historySize)
	if err != nil {
		b.logger.Error("Failed to get interactions",
			zap.Error(err),
			zap.String("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, I couldn't retrieve your history.")
		return
	}
	if len(interactions) == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any history yet.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatHistory(interactions))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send history message",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) {
	userID := userKey(message.From.ID)

	uc, err := b.storage.GetUserContext(ctx, userID)
	if err != nil {
		b.logger.Error("Failed to get user context",
			zap.Error(err),
			zap.String("user_id", userID))
		b.sendErrorMessage(message.Chat.ID, "Sorry, failed to retrieve your stats. Please try again later.")
		return
	}
	if uc.TotalItems == 0 {
		b.sendMessage(message.Chat.ID, "You don't have any tasks yet.")
		return
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, formatStats(uc))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send stats",
			zap.Error(err),
			zap.Int64("chat_id", message.Chat.ID))
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	reply := "Thanks for the feedback!"

	interactionID, rating, err := parseFeedback(query.Data)
	if err == nil {
		err = b.storage.SetFeedback(ctx, interactionID, rating)
	}
	if err != nil {
		b.logger.Warn("Failed to record feedback",
			zap.Error(err),
			zap.String("data", query.Data),
			zap.Int64("user_id", query.From.ID))
		reply = "Couldn't record that, sorry."
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, reply)); err != nil {
		b.logger.Error("Failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", query.ID))
	}
}

func (b *Bot) logWarnings(userID string, warnings []string) {
	for _, w := range warnings {
		b.logger.Warn("Operation completed with warning",
			zap.String("user_id", userID),
			zap.String("warning", w))
	}
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func feedbackKeyboard(interactionID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👍 Useful", feedbackData(interactionID, storage.FeedbackApproved)),
			tgbotapi.NewInlineKeyboardButtonData("👎 Not useful", feedbackData(interactionID, storage.FeedbackRejected)),
		),
	)
}

func feedbackData(interactionID string, rating int) string {
	return fmt.Sprintf("fb:%s:%d", interactionID, rating)
}

func parseFeedback(data string) (string, int, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 || parts[0] != "fb" || parts[1] == "" {
		return "", 0, fmt.Errorf("malformed feedback data %q", data)
	}
	rating, err := strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, fmt.Errorf("malformed feedback rating %q: %w", parts[2], err)
	}
	return parts[1], rating, nil
}

// planTitle is the first line of text, cut to 60 characters.
func planTitle(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if r := []rune(line); len(r) > 60 {
		line = string(r[:57]) + "..."
	}
	if line == "" {
		line = "Plan from " + time.Now().Format("Jan 2")
	}
	return line
}
