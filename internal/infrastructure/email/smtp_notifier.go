// Package email entrega los avisos de facturación por SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/repairshop-api/internal/application/billing"
	"github.com/jhoicas/repairshop-api/internal/infrastructure/pdf"
	"github.com/jhoicas/repairshop-api/pkg/config"
)

var _ billing.Notifier = (*SMTPNotifier)(nil)

// Sender abstrae el envío para poder sustituir el dialer SMTP en tests.
type Sender interface {
	Send(ctx context.Context, msg *gomail.Message) error
}

// SMTPNotifier implementa billing.Notifier enviando correos con el PDF adjunto.
type SMTPNotifier struct {
	sender    Sender
	pdf       billing.InvoicePDFGenerator
	fromName  string
	fromEmail string
	shopName  string
	log       zerolog.Logger
}

// NewSMTPNotifier construye el notificador. generator puede ser nil (sin adjunto).
func NewSMTPNotifier(cfg config.SMTPConfig, shopName string, generator billing.InvoicePDFGenerator, log zerolog.Logger) *SMTPNotifier {
	return NewNotifier(NewDialerSender(cfg), cfg.FromName, cfg.FromEmail, shopName, generator, log)
}

// NewNotifier construye el notificador con un Sender arbitrario.
func NewNotifier(sender Sender, fromName, fromEmail, shopName string, generator billing.InvoicePDFGenerator, log zerolog.Logger) *SMTPNotifier {
	return &SMTPNotifier{
		sender:    sender,
		pdf:       generator,
		fromName:  fromName,
		fromEmail: fromEmail,
		shopName:  shopName,
		log:       log.With().Str("component", "email").Logger(),
	}
}

// Plantillas de los correos. html/template escapa los datos del cliente.
var (
	invoiceIssuedTemplate = template.Must(template.New("invoice_issued").Parse(
		`<p>Hola {{.CustomerName}},</p>` +
			`<p>Adjuntamos la factura <b>{{.InvoiceNumber}}</b> por un total de <b>{{.Total}}</b>.</p>` +
			`{{with .DueDate}}<p>Fecha de vencimiento: {{.}}</p>{{end}}` +
			`<p>{{.ShopName}}</p>`))

	paymentReceivedTemplate = template.Must(template.New("payment_received").Parse(
		`<p>Hola {{.CustomerName}},</p>` +
			`<p>Recibimos el pago de <b>{{.Total}}</b> correspondiente a la factura <b>{{.InvoiceNumber}}</b>.</p>` +
			`<p>Gracias por su preferencia.</p>` +
			`<p>{{.ShopName}}</p>`))
)

type mailData struct {
	CustomerName  string
	InvoiceNumber string
	Total         string
	DueDate       string
	ShopName      string
}

// InvoiceIssued envía la factura emitida al cliente.
func (n *SMTPNotifier) InvoiceIssued(ctx context.Context, doc billing.InvoiceDocument) error {
	subject := fmt.Sprintf("Factura %s - %s", doc.Invoice.InvoiceNumber, n.shopName)
	body, err := render(invoiceIssuedTemplate, n.mailData(doc))
	if err != nil {
		return err
	}
	return n.send(ctx, doc, subject, body)
}

// PaymentReceived envía el recibo de pago.
func (n *SMTPNotifier) PaymentReceived(ctx context.Context, doc billing.InvoiceDocument) error {
	subject := fmt.Sprintf("Recibo de pago %s - %s", doc.Invoice.InvoiceNumber, n.shopName)
	body, err := render(paymentReceivedTemplate, n.mailData(doc))
	if err != nil {
		return err
	}
	return n.send(ctx, doc, subject, body)
}

func (n *SMTPNotifier) mailData(doc billing.InvoiceDocument) mailData {
	data := mailData{
		CustomerName:  customerName(doc),
		InvoiceNumber: doc.Invoice.InvoiceNumber,
		Total:         pdf.FormatAmount(doc.Invoice.TotalAmount),
		ShopName:      n.shopName,
	}
	if doc.Invoice.DueDate != nil {
		data.DueDate = doc.Invoice.DueDate.Format("02/01/2006")
	}
	return data
}

func render(tmpl *template.Template, data mailData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("email: plantilla %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func (n *SMTPNotifier) send(ctx context.Context, doc billing.InvoiceDocument, subject, body string) error {
	to := recipient(doc)
	if to == "" {
		n.log.Debug().Str("invoice_id", doc.Invoice.ID).Msg("cliente sin email, aviso omitido")
		return nil
	}

	// 8bit: el HTML viaja tal cual lo produjo la plantilla.
	msg := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	msg.SetAddressHeader("From", n.fromEmail, n.fromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if n.pdf != nil {
		content, err := n.pdf.GenerateInvoicePDF(ctx, doc)
		if err != nil {
			return fmt.Errorf("email: generar adjunto: %w", err)
		}
		msg.Attach(doc.Invoice.InvoiceNumber+".pdf",
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		)
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("email: enviar a %s: %w", to, err)
	}
	n.log.Info().Str("invoice_id", doc.Invoice.ID).Str("subject", subject).Msg("correo enviado")
	return nil
}

func recipient(doc billing.InvoiceDocument) string {
	if doc.Customer == nil {
		return ""
	}
	return strings.TrimSpace(doc.Customer.Email)
}

func customerName(doc billing.InvoiceDocument) string {
	if doc.Customer == nil || doc.Customer.Name == "" {
		return "cliente"
	}
	return doc.Customer.Name
}

// DialerSender envía con gomail.Dialer abriendo una conexión por mensaje.
type DialerSender struct {
	dialer *gomail.Dialer
}

// NewDialerSender construye el Sender SMTP a partir de la configuración.
func NewDialerSender(cfg config.SMTPConfig) *DialerSender {
	return &DialerSender{dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

// Send respeta la cancelación del contexto antes de marcar al servidor.
func (s *DialerSender) Send(ctx context.Context, msg *gomail.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
