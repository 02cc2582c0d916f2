// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sirupsen/logrus"
)

// Providers
const (
	ProviderLog  = "log"
	ProviderSMTP = "smtp"
)

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders and sends transactional emails
type EmailService struct {
	config    config.EmailConfig
	sender    Sender
	templates map[EmailType]*template.Template
	logger    logrus.FieldLogger
}

// NewEmailService creates a new email service for the configured provider
func NewEmailService(cfg config.EmailConfig, logger logrus.FieldLogger) (*EmailService, error) {
	var sender Sender
	switch cfg.Provider {
	case ProviderSMTP:
		if cfg.SMTPHost == "" {
			return nil, fmt.Errorf("SMTP configuration incomplete: missing host")
		}
		sender = NewSMTPSender(cfg)
	case ProviderLog, "":
		sender = NewLogSender(logger)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
	return NewEmailServiceWithSender(cfg, sender, logger)
}

// NewEmailServiceWithSender wires an explicit sender
func NewEmailServiceWithSender(cfg config.EmailConfig, sender Sender, logger logrus.FieldLogger) (*EmailService, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	return &EmailService{
		config:    cfg,
		sender:    sender,
		templates: templates,
		logger:    logger,
	}, nil
}

// SendEmail sends an email using the configured provider
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if err := s.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send %s email: %w", email.Type, err)
	}
	s.logger.WithFields(logrus.Fields{
		"type": email.Type,
		"to":   email.To,
	}).Debug("email sent")
	return nil
}

// SendOrderConfirmationEmail sends order confirmation email
func (s *EmailService) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	data.EmailTemplateData = GetBaseTemplateData(s.config.FromName, data.UserName, data.UserEmail)

	htmlContent, err := s.renderTemplate(EmailTypeOrderConfirmation, data)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{data.UserEmail},
		Subject:     fmt.Sprintf("Order Confirmation - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderConfirmation,
		Data: map[string]interface{}{
			"order_number": data.OrderNumber,
			"order_total":  data.OrderTotal,
		},
	})
}

// SendOrderStatusUpdateEmail sends order status update notification
func (s *EmailService) SendOrderStatusUpdateEmail(ctx context.Context, data OrderStatusUpdateData) error {
	data.EmailTemplateData = GetBaseTemplateData(s.config.FromName, data.UserName, data.UserEmail)

	htmlContent, err := s.renderTemplate(EmailTypeOrderStatusUpdate, data)
	if err != nil {
		return fmt.Errorf("failed to render order status update template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{data.UserEmail},
		Subject:     fmt.Sprintf("Order Update - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderStatusUpdate,
		Data: map[string]interface{}{
			"order_number": data.OrderNumber,
			"status":       data.Status,
		},
	})
}

// SendWelcomeEmail greets a newly registered user
func (s *EmailService) SendWelcomeEmail(ctx context.Context, userEmail, userName string) error {
	data := GetBaseTemplateData(s.config.FromName, userName, userEmail)

	htmlContent, err := s.renderTemplate(EmailTypeWelcome, data)
	if err != nil {
		return fmt.Errorf("failed to render welcome email template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{userEmail},
		Subject:     fmt.Sprintf("Welcome to %s!", s.config.FromName),
		HTMLContent: htmlContent,
		Type:        EmailTypeWelcome,
		Data:        map[string]interface{}{"user_name": userName},
	})
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(name EmailType, data interface{}) (string, error) {
	tmpl, exists := s.templates[name]
	if !exists {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

func loadTemplates() (map[EmailType]*template.Template, error) {
	sources := map[EmailType]string{
		EmailTypeWelcome:           welcomeTemplate,
		EmailTypeOrderConfirmation: orderConfirmationTemplate,
		EmailTypeOrderStatusUpdate: orderStatusUpdateTemplate,
	}

	templates := make(map[EmailType]*template.Template, len(sources))
	for name, body := range sources {
		tmpl, err := template.New(string(name)).Parse(layoutTemplate)
		if err == nil {
			tmpl, err = tmpl.Parse(body)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

const layoutTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.SiteName}}</title>
</head>
<body style="font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f4f4f4;">
    <div style="max-width: 600px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 8px;">
        <h1 style="color: #333;">{{.SiteName}}</h1>
        <p>Hello {{.UserName}},</p>
        {{template "content" .}}
        <p>Best regards,<br>{{.SiteName}} Team</p>
        <hr>
        <p style="font-size: 12px; color: #666;">&copy; {{.Year}} {{.SiteName}}. All rights reserved.</p>
    </div>
</body>
</html>`

const welcomeTemplate = `{{define "content"}}
<p>Thanks for creating an account with {{.SiteName}}. You can start shopping right away.</p>
{{end}}`

const orderConfirmationTemplate = `{{define "content"}}
<p>We received your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.</p>
<table style="width: 100%; border-collapse: collapse;">
    <tr><th align="left">Item</th><th align="right">Qty</th><th align="right">Price</th><th align="right">Subtotal</th></tr>
    {{range .Items}}
    <tr><td>{{.Name}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.Price}}</td><td align="right">{{.Subtotal}}</td></tr>
    {{end}}
</table>
<p><strong>Total: {{.OrderTotal}}</strong></p>
{{if .PaymentMethod}}<p>Payment method: {{.PaymentMethod}}</p>{{end}}
{{if .ShippingTo}}<p>Shipping to: {{.ShippingTo}}</p>{{end}}
{{end}}`

const orderStatusUpdateTemplate = `{{define "content"}}
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
{{if .StatusMessage}}<p>{{.StatusMessage}}</p>{{end}}
{{end}}`
