package delivery

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// AttributionPrefix is the fixed prefix of the audit note that attributes
// a contact to the issuing staff member. The staff breakdown parses it
// back out of the note body.
const AttributionPrefix = "Created by "

// AttributionNote builds the audit note body for a staff member.
func AttributionNote(staffName string) string {
	return AttributionPrefix + staffName
}

// erpAPI is the slice of the ERP client the gateway needs. Narrowed for
// testability.
type erpAPI interface {
	CreateContact(ctx context.Context, customerName, phoneLocal, branch string) (int, error)
	AddNote(ctx context.Context, contactID int, text string) error
	SendTemplate(ctx context.Context, contactID int, templateName string, variables map[string]string) error
}

// ERPGateway delivers coupons through the ERP: create a contact, post an
// attribution note, then trigger the template message. Each step can fail
// independently; any failure short-circuits the rest and yields a failed
// outcome.
type ERPGateway struct {
	api          erpAPI
	templateName string
	logger       *logrus.Entry
}

// NewERPGateway creates a gateway for the ERP-mediated variant.
func NewERPGateway(client *ERPClient, templateName string, logger *logrus.Logger) *ERPGateway {
	return &ERPGateway{
		api:          client,
		templateName: templateName,
		logger:       logger.WithField("component", "delivery.erp_gateway"),
	}
}

func (g *ERPGateway) Send(ctx context.Context, msg Message) Outcome {
	contactID, err := g.api.CreateContact(ctx, msg.CustomerName, msg.PhoneLocal, msg.Branch)
	if err != nil {
		g.logger.WithError(err).Error("ERP contact creation failed")
		return failure(fmt.Errorf("create contact: %w", err))
	}

	if err := g.api.AddNote(ctx, contactID, AttributionNote(msg.StaffName)); err != nil {
		g.logger.WithError(err).Error("ERP note creation failed")
		return failure(fmt.Errorf("add note: %w", err))
	}

	err = g.api.SendTemplate(ctx, contactID, g.templateName, map[string]string{
		"customer_name": msg.CustomerName,
		"coupon_code":   msg.CouponCode,
		"branch":        msg.Branch,
	})
	if err != nil {
		// The contact exists by now, but delivery did not happen: still a
		// failed outcome.
		g.logger.WithError(err).Error("ERP template send failed")
		return failure(fmt.Errorf("send template: %w", err))
	}

	g.logger.WithFields(logrus.Fields{
		"contactId":  contactID,
		"couponCode": msg.CouponCode,
	}).Info("Coupon delivered via ERP")

	return Outcome{Success: true, MessageID: fmt.Sprintf("contact-%d", contactID)}
}
