package notification

import (
	"athletix/training-app/internal/domain"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Timeout for a single detached send.
const sendTimeout = 15 * time.Second

// Mailer defines the interface for transactional email delivery.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Notifier builds invite emails and dispatches them fire-and-forget: every
// send runs on a detached goroutine and failures are logged, never
// propagated to the triggering request.
type Notifier struct {
	mailer     Mailer
	appBaseURL string
	log        *logrus.Logger
}

// NewNotifier creates a Notifier. appBaseURL may be empty; call-to-action
// links are then omitted from the bodies.
func NewNotifier(mailer Mailer, appBaseURL string, log *logrus.Logger) *Notifier {
	return &Notifier{
		mailer:     mailer,
		appBaseURL: appBaseURL,
		log:        log,
	}
}

// InviteCreated notifies the invited athlete that a coach wants to link.
func (n *Notifier) InviteCreated(invite *domain.CoachInvite, coachName string) {
	subject := "New coach invitation"
	body := fmt.Sprintf(
		"Hi!\n\n%s invited you to train on the Athletix platform.\n"+
			"Sign in, or register using this email address, to accept the invitation.\n\n",
		coachName,
	)
	if cta := n.ctaURL("/register"); cta != "" {
		body += fmt.Sprintf("Start here: %s\n", cta)
	}
	n.dispatch(invite.AthleteEmail, subject, body)
}

// InviteReminder nudges the athlete about a pending invitation.
func (n *Notifier) InviteReminder(invite *domain.CoachInvite, coachName string) {
	subject := "Reminder: you have a pending invitation"
	body := fmt.Sprintf(
		"Hi! %s is waiting for you to confirm your invitation on Athletix.\n"+
			"Sign in to accept it and sync your training plans.\n",
		coachName,
	)
	if cta := n.ctaURL("/login"); cta != "" {
		body += fmt.Sprintf("Log in here: %s\n", cta)
	}
	n.dispatch(invite.AthleteEmail, subject, body)
}

// InviteAccepted notifies the coach that their invitation was accepted.
func (n *Notifier) InviteAccepted(coachEmail, athleteName string) {
	if coachEmail == "" {
		return
	}
	subject := "An athlete accepted your invitation"
	body := fmt.Sprintf(
		"%s accepted your invitation on Athletix.\n"+
			"You can now assign plans and start tracking their progress.",
		athleteName,
	)
	n.dispatch(coachEmail, subject, body)
}

func (n *Notifier) ctaURL(path string) string {
	if n.appBaseURL == "" {
		return ""
	}
	return strings.TrimRight(n.appBaseURL, "/") + path
}

// dispatch hands the message to the mailer on a detached goroutine. The
// caller's transaction outcome must never depend on delivery.
func (n *Notifier) dispatch(recipient, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.mailer.Send(ctx, recipient, subject, body); err != nil {
			n.log.WithFields(logrus.Fields{
				"recipient": recipient,
				"subject":   subject,
			}).WithError(err).Error("failed to send notification email")
		}
	}()
}

// noopMailer is used when email is not configured; sends are logged and
// skipped, matching the best-effort delivery contract.
type noopMailer struct {
	log *logrus.Logger
}

// NewNoopMailer creates a Mailer that skips delivery.
func NewNoopMailer(log *logrus.Logger) Mailer {
	return &noopMailer{log: log}
}

func (m *noopMailer) Send(_ context.Context, recipient, subject, _ string) error {
	m.log.WithFields(logrus.Fields{
		"recipient": recipient,
		"subject":   subject,
	}).Warn("email not configured, skipping notification")
	return nil
}
