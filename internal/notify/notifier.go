package notify

import (
	"context"
	"fmt"

	"maitred/internal/domain"

	"github.com/rs/zerolog"
)

// Sender is the minimal message transport the dispatcher needs.
type Sender interface {
	SendMessage(chatID int64, text string) error
}

// telegramSender adapts TelegramService to Sender.
type telegramSender struct {
	svc *TelegramService
}

func NewTelegramNotifySender(svc *TelegramService) Sender {
	return &telegramSender{svc: svc}
}

func (s *telegramSender) SendMessage(chatID int64, text string) error {
	_, err := s.svc.SendMessage(chatID, text)
	return err
}

// StaffNotifier delivers booking alerts to every active staff member who has
// a Telegram chat and has not opted out of the event type.
type StaffNotifier struct {
	store  domain.Store
	sender Sender
	logger *zerolog.Logger
}

func NewStaffNotifier(store domain.Store, sender Sender, logger *zerolog.Logger) *StaffNotifier {
	return &StaffNotifier{
		store:  store,
		sender: sender,
		logger: logger,
	}
}

// NotifyStaff fans the message out. A send failure to one member does not
// stop delivery to the others; the first error is returned so the worker
// retries the task.
func (n *StaffNotifier) NotifyStaff(ctx context.Context, restaurantID int64, eventType, message string) error {
	members, err := n.store.GetActiveStaffWithChat(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("load staff: %w", err)
	}

	var firstErr error
	for _, member := range members {
		wants, err := n.store.WantsNotification(ctx, member.ID, eventType)
		if err != nil {
			n.logger.Warn().Err(err).Int64("staff_id", member.ID).Msg("preference lookup failed")
			continue
		}
		if !wants {
			continue
		}

		if err := n.sender.SendMessage(member.ChatID, message); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", member.ChatID).Msg("telegram send failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
