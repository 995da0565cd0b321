package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantglass/analyst/models"
)

// Notifier pushes analysis alerts to Telegram chats.
type Notifier struct {
	bot       *tgbotapi.BotAPI
	threshold float64
	logger    zerolog.Logger
}

// New creates a Notifier. threshold is the minimum strength a
// non-neutral signal needs to be included in an alert.
func New(token string, threshold float64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &Notifier{
		bot:       bot,
		threshold: threshold,
		logger:    log.With().Str("component", "telegram_notifier").Logger(),
	}, nil
}

// NotifyReport sends one message summarizing the strong signals of a
// report. Reports without strong signals are skipped silently.
func (n *Notifier) NotifyReport(chatID int64, report *models.AnalysisReport) error {
	text := n.formatReport(report)
	if text == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	n.logger.Debug().Int64("chat_id", chatID).Str("symbol", report.Symbol).Msg("Alert sent")
	return nil
}

func (n *Notifier) formatReport(report *models.AnalysisReport) string {
	var lines []string
	for _, sig := range report.Signals {
		if sig.Direction == models.DirectionNeutral || sig.Strength < n.threshold {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s *%s* (strength %.1f)",
			directionEmoji(sig.Direction), sig.Type, sig.Direction, sig.Strength))
	}
	if len(lines) == 0 {
		return ""
	}

	header := fmt.Sprintf("*%s* @ %.5f (%s)", report.Symbol, report.CurrentPrice, report.Interval)

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	sb.WriteString(strings.Join(lines, "\n"))

	if len(report.Levels.Resistance) > 0 {
		sb.WriteString(fmt.Sprintf("\n\nResistance: %s", formatLevels(report.Levels.Resistance)))
	}
	if len(report.Levels.Support) > 0 {
		sb.WriteString(fmt.Sprintf("\nSupport: %s", formatLevels(report.Levels.Support)))
	}
	return sb.String()
}

func directionEmoji(direction models.SignalDirection) string {
	if direction == models.DirectionBullish {
		return "📈"
	}
	return "📉"
}

func formatLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, level := range levels {
		parts[i] = fmt.Sprintf("%.5f", level)
	}
	return strings.Join(parts, ", ")
}
