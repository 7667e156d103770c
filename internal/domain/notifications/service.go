package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"schooladmin/internal/domain/payroll"
)

// Mailer sends outbound email. The SMTP implementation lives in
// internal/platform/email; a nil or noop mailer disables delivery.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
	SchoolName  string
}

func New(store StoreAPI, mailer Mailer, defaultFrom, schoolName string) *Service {
	if defaultFrom == "" {
		defaultFrom = "no-reply@example.com"
	}
	return &Service{store: store, Mailer: mailer, DefaultFrom: defaultFrom, SchoolName: schoolName}
}

// Create stores a notification row and emails the recipient best effort. A
// failed delivery is logged but the row still stands.
func (s *Service) Create(ctx context.Context, recipientID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, recipientID, ntype, title, body); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}

	email, err := s.store.RecipientEmail(ctx, recipientID)
	if err != nil {
		slog.Warn("notification email lookup failed", "recipientId", recipientID, "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "recipientId", recipientID, "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, recipientID string, limit, offset int) ([]map[string]any, error) {
	return s.store.ListNotifications(ctx, recipientID, limit, offset)
}

func (s *Service) Count(ctx context.Context, recipientID string) (int, error) {
	return s.store.CountNotifications(ctx, recipientID)
}

func (s *Service) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.store.MarkRead(ctx, recipientID, notificationID)
}

// SendPayslip records a payslip notification for the employee and mails the
// summary directly to the address on the record.
func (s *Service) SendPayslip(ctx context.Context, record payroll.Record, month string) error {
	title := fmt.Sprintf("Payslip for %s", month)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour payslip for %s is ready.\n\nGross pay: %s\nTotal deductions: %s\nNet pay: %s\n\n%s",
		record.FullName, month,
		record.GrossSalary.StringFixed(2), record.TotalDeductions.StringFixed(2), record.NetPay.StringFixed(2),
		s.SchoolName,
	)
	if err := s.store.CreateNotification(ctx, record.EmployeeID, TypePayslipPublished, title, body); err != nil {
		return err
	}
	if s.Mailer == nil || record.Email == "" {
		return nil
	}
	return s.Mailer.Send(ctx, s.DefaultFrom, record.Email, title, body)
}
