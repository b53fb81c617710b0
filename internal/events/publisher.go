package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/models"
)

// CouponIssuedEvent is published after each issuance or resend attempt.
type CouponIssuedEvent struct {
	EventType    string    `json:"event_type"`
	CouponID     uint      `json:"coupon_id"`
	CouponCode   string    `json:"coupon_code"`
	Branch       string    `json:"branch"`
	StaffID      uint      `json:"staff_id"`
	WhatsappSent bool      `json:"whatsapp_sent"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher emits coupon lifecycle events over NATS. A nil Publisher is
// valid and drops all events; event delivery is best-effort and never
// blocks the issuing request's response.
type Publisher struct {
	conn   *nats.Conn
	logger *logrus.Entry
}

// NewPublisher connects to NATS at natsURL.
func NewPublisher(natsURL string, logger *logrus.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("coupon-issuance-service"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Publisher{
		conn:   conn,
		logger: logger.WithField("component", "events.publisher"),
	}, nil
}

// PublishCouponIssued publishes a coupon.issued event
func (p *Publisher) PublishCouponIssued(coupon *models.Coupon) {
	p.publish("coupon.issued", coupon)
}

// PublishCouponResent publishes a coupon.resent event
func (p *Publisher) PublishCouponResent(coupon *models.Coupon) {
	p.publish("coupon.resent", coupon)
}

func (p *Publisher) publish(subject string, coupon *models.Coupon) {
	if p == nil || p.conn == nil {
		return
	}

	event := CouponIssuedEvent{
		EventType:    subject,
		CouponID:     coupon.ID,
		CouponCode:   coupon.CouponCode,
		Branch:       coupon.Branch,
		StaffID:      coupon.StaffID,
		WhatsappSent: coupon.WhatsappSent,
		Timestamp:    time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal event")
		return
	}

	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.WithError(err).WithField("subject", subject).Warn("Failed to publish event")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"subject":  subject,
		"couponId": coupon.ID,
	}).Debug("Published event")
}

// Close drains the NATS connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
