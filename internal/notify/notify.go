// Package notify formats registration confirmation emails and hands them to
// a provider. The only provider logs the message instead of delivering it.
package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/runreward/runreward/internal/config"
	"github.com/runreward/runreward/internal/logging"
)

// ConfirmationEmail is what a confirmation needs to know about the
// recipient and the course.
type ConfirmationEmail struct {
	ToEmail          string
	ToName           string
	CourseName       string
	CourseDate       string
	CourseLocation   string
	OrganizerMessage string
}

const DefaultOrganizerMessage = "L'organisateur vous contactera sous peu pour finaliser les détails de votre participation."

type Notifier interface {
	Name() string
	SendConfirmation(ctx context.Context, e ConfirmationEmail) (bool, error)
}

//go:embed confirmation.tmpl
var confirmationText string

var confirmationTmpl = template.Must(template.New("confirmation").Parse(confirmationText))

// Subject returns the subject line for e.
func Subject(e ConfirmationEmail) string {
	return "Confirmation d'inscription - " + e.CourseName
}

// RenderConfirmation returns the plain-text body for e.
func RenderConfirmation(e ConfirmationEmail) (string, error) {
	if e.OrganizerMessage == "" {
		e.OrganizerMessage = DefaultOrganizerMessage
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, e); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// LogNotifier writes each message to the logger and always succeeds.
type LogNotifier struct {
	log      logging.Logger
	from     string
	fromName string
}

func NewLogNotifier(log logging.Logger, from, fromName string) *LogNotifier {
	return &LogNotifier{log: log, from: from, fromName: fromName}
}

func (n *LogNotifier) Name() string { return "log" }

func (n *LogNotifier) SendConfirmation(ctx context.Context, e ConfirmationEmail) (bool, error) {
	body, err := RenderConfirmation(e)
	if err != nil {
		return false, err
	}

	n.log.Info(ctx, "confirmation email sent",
		"from", fmt.Sprintf("%s <%s>", n.fromName, n.from),
		"to", e.ToEmail,
		"subject", Subject(e),
		"course", e.CourseName,
		"date", e.CourseDate,
		"location", e.CourseLocation,
		"body", body,
	)
	return true, nil
}

// NewNotifier picks the provider named by cfg.NotifierProvider.
func NewNotifier(cfg *config.Config, log logging.Logger) (Notifier, error) {
	switch cfg.NotifierProvider {
	case "", "log":
		return NewLogNotifier(log, cfg.EmailFrom, cfg.EmailFromName), nil
	default:
		return nil, fmt.Errorf("unknown notifier provider %q", cfg.NotifierProvider)
	}
}

// SendTestEmail sends a fixed message to test@example.com.
func SendTestEmail(ctx context.Context, n Notifier) (bool, error) {
	return n.SendConfirmation(ctx, ConfirmationEmail{
		ToEmail:          "test@example.com",
		ToName:           "Utilisateur Test",
		CourseName:       "Course Test",
		CourseDate:       "15 décembre 2024",
		CourseLocation:   "Genève, Suisse",
		OrganizerMessage: "Ceci est un email de test pour vérifier le bon fonctionnement du système.",
	})
}
