package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/mail"
	"strings"

	"farmledger/internal/core"
)

// ContactForm is a message submitted through the public contact endpoint.
type ContactForm struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string
}

func (f ContactForm) Validate() error {
	var missing []string
	if f.Name == "" {
		missing = append(missing, "name")
	}
	if f.Email == "" {
		missing = append(missing, "email")
	}
	if f.Subject == "" {
		missing = append(missing, "subject")
	}
	if f.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return core.NewValidationError("Name, email, subject and message are required", missing...)
	}
	// A bare address only: display names or extra addresses would end up in
	// the confirmation's To header.
	if addr, err := mail.ParseAddress(f.Email); err != nil || addr.Address != f.Email {
		return core.NewValidationError("Please enter a valid email address", "email")
	}
	return nil
}

var (
	supportTmpl = template.Must(template.New("support").Parse(`<h3>New Contact Form Submission</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

	confirmTmpl = template.Must(template.New("confirm").Parse(`<h3>Hello {{.Name}},</h3>
<p>Thank you for contacting us. We have received your message regarding "<strong>{{.Subject}}</strong>".</p>
<p>Our team will get back to you shortly.</p>
<br>
<p>Best Regards,</p>
<p>The Farm Ledger Team</p>
`))
)

// ContactService forwards contact forms to support and confirms receipt to
// the sender. Delivery failures are returned, never retried.
type ContactService struct {
	sender       Sender
	supportEmail string
}

func NewContactService(sender Sender, supportEmail string) *ContactService {
	return &ContactService{sender: sender, supportEmail: supportEmail}
}

func (s *ContactService) Submit(ctx context.Context, f ContactForm) error {
	f = ContactForm{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Phone:   strings.TrimSpace(f.Phone),
		Subject: strings.TrimSpace(f.Subject),
		Message: strings.TrimSpace(f.Message),
	}
	if err := f.Validate(); err != nil {
		return err
	}

	supportBody, err := render(supportTmpl, f)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, s.supportEmail, "Contact Form: "+f.Subject, supportBody); err != nil {
		return fmt.Errorf("notify support: %w", err)
	}

	confirmBody, err := render(confirmTmpl, f)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, f.Email, "We received your message", confirmBody); err != nil {
		return fmt.Errorf("confirm to sender: %w", err)
	}

	slog.InfoContext(ctx, "Contact form delivered", "subject", f.Subject)
	return nil
}

func render(t *template.Template, f ContactForm) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, f); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
