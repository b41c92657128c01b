package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/terraincognita07/prostranstvo/internal/bot"
	"go.uber.org/zap"
)

type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup any) error
	AnswerCallbackQuery(ctx context.Context, callbackID string, text string, alert bool) error
}

type Handler interface {
	HandleStream(ctx context.Context, event bot.Event, emit func(bot.Reply))
	MainMenu(language string) [][]string
}

// Dispatcher turns Telegram updates into bot events and delivers the replies.
type Dispatcher struct {
	sender  Sender
	handler Handler
	logger  *zap.Logger
}

func NewDispatcher(sender Sender, handler Handler, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{sender: sender, handler: handler, logger: logger}
}

// Process handles one update. Callback queries are always answered, with the
// first alert reply when the handler produced one.
func (dispatcher *Dispatcher) Process(ctx context.Context, update Update) error {
	event, ok := EventFromUpdate(update)
	if !ok {
		dispatcher.logger.Debug("skipping unsupported update", zap.Int64("update_id", update.UpdateID))
		return nil
	}

	var sendErrs []error
	answered := false
	dispatcher.handler.HandleStream(ctx, event, func(reply bot.Reply) {
		if reply.Alert && event.CallbackID != "" && !answered {
			answered = true
			if err := dispatcher.sender.AnswerCallbackQuery(ctx, event.CallbackID, reply.Text, true); err != nil {
				sendErrs = append(sendErrs, err)
			}
			return
		}
		if err := dispatcher.sender.SendMessage(ctx, event.ChatID, reply.Text, dispatcher.markup(event, reply)); err != nil {
			sendErrs = append(sendErrs, err)
		}
	})

	if event.CallbackID != "" && !answered {
		if err := dispatcher.sender.AnswerCallbackQuery(ctx, event.CallbackID, "", false); err != nil {
			sendErrs = append(sendErrs, err)
		}
	}

	if err := errors.Join(sendErrs...); err != nil {
		dispatcher.logger.Warn("deliver replies failed",
			zap.Int64("update_id", update.UpdateID),
			zap.Int64("chat_id", event.ChatID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (dispatcher *Dispatcher) markup(event bot.Event, reply bot.Reply) any {
	if len(reply.Buttons) > 0 {
		rows := make([][]InlineKeyboardButton, 0, len(reply.Buttons))
		for _, row := range reply.Buttons {
			buttons := make([]InlineKeyboardButton, 0, len(row))
			for _, button := range row {
				buttons = append(buttons, InlineKeyboardButton{Text: button.Text, CallbackData: button.Data})
			}
			rows = append(rows, buttons)
		}
		return InlineKeyboardMarkup{InlineKeyboard: rows}
	}
	if reply.MainMenu {
		labels := dispatcher.handler.MainMenu(event.Language)
		rows := make([][]KeyboardButton, 0, len(labels))
		for _, row := range labels {
			buttons := make([]KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, KeyboardButton{Text: label})
			}
			rows = append(rows, buttons)
		}
		return ReplyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true}
	}
	return nil
}

// EventFromUpdate maps a message or callback query to a bot event.
func EventFromUpdate(update Update) (bot.Event, bool) {
	switch {
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		chatID := query.From.ID
		if query.Message != nil {
			chatID = query.Message.Chat.ID
		}
		return bot.Event{
			UserID:     query.From.ID,
			ChatID:     chatID,
			Kind:       bot.EventButton,
			Payload:    query.Data,
			CallbackID: query.ID,
			Language:   query.From.LanguageCode,
		}, true
	case update.Message != nil && update.Message.From != nil && update.Message.Text != "":
		message := update.Message
		kind := bot.EventText
		if message.IsCommand() || strings.HasPrefix(message.Text, "/") {
			kind = bot.EventCommand
		}
		return bot.Event{
			UserID:   message.From.ID,
			ChatID:   message.Chat.ID,
			Kind:     kind,
			Payload:  message.Text,
			Language: message.From.LanguageCode,
		}, true
	default:
		return bot.Event{}, false
	}
}
