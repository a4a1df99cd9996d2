package worker

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// ErrQueueFull is returned by Dispatch when the queue has no room left
var ErrQueueFull = errors.New("mail queue is full")

// Sender delivers a rendered message. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailDispatcher sends mail off the request path. Failed deliveries are
// logged and dropped.
type MailDispatcher struct {
	sender Sender
	queue  chan *gomail.Message
	log    *logrus.Entry
}

func NewMailDispatcher(sender Sender, queueSize int, log *logrus.Entry) *MailDispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	return &MailDispatcher{
		sender: sender,
		queue:  make(chan *gomail.Message, queueSize),
		log:    log,
	}
}

// NewSMTPSender builds the production sender
func NewSMTPSender(host string, port int, username, password string) Sender {
	return gomail.NewDialer(host, port, username, password)
}

// Dispatch queues m without blocking
func (d *MailDispatcher) Dispatch(m *gomail.Message) error {
	select {
	case d.queue <- m:
		return nil
	default:
		d.log.WithField("to", m.GetHeader("To")).Warn("mail queue full, dropping message")
		return ErrQueueFull
	}
}

// Start delivers queued messages until ctx is cancelled
func (d *MailDispatcher) Start(ctx context.Context) {
	d.log.Info("Mail dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.log.Info("Mail dispatcher shutting down...")
			return
		case m := <-d.queue:
			d.send(m)
		}
	}
}

func (d *MailDispatcher) send(m *gomail.Message) {
	to := m.GetHeader("To")
	if err := d.sender.DialAndSend(m); err != nil {
		d.log.WithError(err).WithField("to", to).Error("failed to send mail")
		return
	}
	d.log.WithField("to", to).Debug("mail sent")
}
