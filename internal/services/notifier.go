package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/guestotp-backend/internal/metrics"
	"github.com/Ananth-NQI/guestotp-backend/internal/models"
	"github.com/Ananth-NQI/guestotp-backend/internal/utils"
)

// Notifier fans a check-in message out to every channel. A failing channel
// never stops the others.
type Notifier struct {
	senders []MessageSender
}

// NewNotifier creates a notifier over the given channels
func NewNotifier(senders ...MessageSender) *Notifier {
	return &Notifier{senders: senders}
}

// Notify sends msg on all channels and returns one result per channel, in
// sender order.
func (n *Notifier) Notify(ctx context.Context, msg models.CheckinMessage) []models.NotificationResult {
	results := make([]models.NotificationResult, len(n.senders))

	var wg sync.WaitGroup
	for i, sender := range n.senders {
		wg.Add(1)
		go func(i int, sender MessageSender) {
			defer wg.Done()
			results[i] = sender.Send(ctx, msg)
		}(i, sender)
	}
	wg.Wait()

	for _, r := range results {
		metrics.Notification(r.Channel, r.Success)
		if !r.Success {
			logrus.WithFields(logrus.Fields{
				"channel":     r.Channel,
				"status_code": r.StatusCode,
				"phone":       utils.MaskDigits(msg.PhoneNumber),
			}).Warnf("Guest notification failed: %s", r.Error)
		}
	}
	return results
}
