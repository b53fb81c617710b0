package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/phone"
)

// WhatsAppGateway delivers coupons with a single call to a WhatsApp
// messaging API.
type WhatsAppGateway struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Entry
}

type whatsappSendRequest struct {
	To   string `json:"to"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

type whatsappSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewWhatsAppGateway creates a gateway for the direct messaging variant.
func NewWhatsAppGateway(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *WhatsAppGateway {
	return &WhatsAppGateway{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithField("component", "delivery.whatsapp"),
	}
}

// Send posts a pre-formatted coupon message to the provider. Provider
// errors are captured in the outcome, never propagated.
func (g *WhatsAppGateway) Send(ctx context.Context, msg Message) Outcome {
	req := whatsappSendRequest{
		To:   phone.International(msg.PhoneLocal),
		Type: "text",
	}
	req.Text.Body = fmt.Sprintf(
		"Dear %s, thank you for visiting our %s showroom. Your coupon code is %s. Present it on your next visit to redeem.",
		msg.CustomerName, msg.Branch, msg.CouponCode,
	)

	body, err := json.Marshal(req)
	if err != nil {
		return failure(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/messages", bytes.NewBuffer(body))
	if err != nil {
		return failure(err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.logger.WithError(err).Error("WhatsApp API request failed")
		return failure(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(err)
	}

	if resp.StatusCode >= 400 {
		g.logger.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"response": string(respBody),
		}).Error("WhatsApp API error")
		return Outcome{Success: false, Error: fmt.Sprintf("whatsapp API error: status %d", resp.StatusCode)}
	}

	var result whatsappSendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return failure(fmt.Errorf("failed to parse provider response: %w", err))
	}
	if result.Error != nil {
		return Outcome{Success: false, Error: result.Error.Message}
	}

	outcome := Outcome{Success: true}
	if len(result.Messages) > 0 {
		outcome.MessageID = result.Messages[0].ID
	}

	g.logger.WithFields(logrus.Fields{
		"couponCode": msg.CouponCode,
		"messageId":  outcome.MessageID,
	}).Info("Coupon delivered via WhatsApp")

	return outcome
}
