package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanketcencora/squadron-verify-api/internal/models"
	"github.com/sanketcencora/squadron-verify-api/pkg/config"
	"github.com/sanketcencora/squadron-verify-api/pkg/jobs"
)

// Mailer sends a single message. Implementations wrap SMTP or a provider
// API; tests stub it.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type linkBuilder interface {
	BuildLink(token *models.VerificationToken) string
}

const (
	jobTypeVerificationRequest = "verification_request"
	jobTypeReminder            = "verification_reminder"
)

var requestTemplate = template.Must(template.New("request").Parse(`Hi {{.EmployeeName}},

The IT team is running the "{{.CampaignName}}" asset verification campaign.
Please confirm the devices assigned to you by following your personal link:

{{.Link}}

The link is valid until {{.ExpiresAt}} and stops working once you finish.
{{if .Deadline}}The campaign deadline is {{.Deadline}}.
{{end}}
Thanks,
IT Asset Management`))

var reminderTemplate = template.Must(template.New("reminder").Parse(`Hi {{.EmployeeName}},

This is a reminder: the "{{.CampaignName}}" asset verification campaign is
still waiting on you. Your personal link:

{{.Link}}

It expires on {{.ExpiresAt}}.

Thanks,
IT Asset Management`))

type notificationPayload struct {
	To      string
	Subject string
	Body    string
}

type mailVars struct {
	EmployeeName string
	CampaignName string
	Link         string
	ExpiresAt    string
	Deadline     string
}

// NotificationService renders campaign mail and dispatches it through a
// background queue so slow mail servers never block a launch.
type NotificationService struct {
	mailer Mailer
	links  linkBuilder
	queue  *jobs.Queue
	cfg    config.NotificationsConfig
	logger *zap.Logger
}

// NewNotificationService builds the service and its delivery queue. Call
// Start before enqueueing and Stop on shutdown.
func NewNotificationService(mailer Mailer, links linkBuilder, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{
		mailer: mailer,
		links:  links,
		cfg:    cfg,
		logger: logger,
	}
	s.queue = jobs.NewQueue("notifications", s.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// SendVerificationRequest queues the initial campaign mail for one employee.
func (s *NotificationService) SendVerificationRequest(ctx context.Context, token *models.VerificationToken, campaign *models.Campaign) error {
	subject := fmt.Sprintf("Action required: verify your IT assets (%s)", campaign.Name)
	return s.enqueue(jobTypeVerificationRequest, token, campaign, requestTemplate, subject)
}

// SendReminder queues a reminder for an employee with open records.
func (s *NotificationService) SendReminder(ctx context.Context, token *models.VerificationToken, campaign *models.Campaign) error {
	subject := fmt.Sprintf("Reminder: verify your IT assets (%s)", campaign.Name)
	return s.enqueue(jobTypeReminder, token, campaign, reminderTemplate, subject)
}

func (s *NotificationService) enqueue(jobType string, token *models.VerificationToken, campaign *models.Campaign, tmpl *template.Template, subject string) error {
	if !s.cfg.Enabled {
		return nil
	}

	vars := mailVars{
		EmployeeName: token.EmployeeName,
		CampaignName: campaign.Name,
		Link:         s.links.BuildLink(token),
		ExpiresAt:    token.ExpiresAt.Format("Jan 2, 2006"),
	}
	if campaign.Deadline != nil {
		vars.Deadline = campaign.Deadline.Format("Jan 2, 2006")
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, vars); err != nil {
		return fmt.Errorf("render %s mail: %w", jobType, err)
	}

	return s.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: jobType,
		Payload: notificationPayload{
			To:      token.EmployeeEmail,
			Subject: subject,
			Body:    body.String(),
		},
	})
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	if err := s.mailer.Send(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		return fmt.Errorf("send %s to %s: %w", job.Type, payload.To, err)
	}
	s.logger.Debug("notification delivered", zap.String("type", job.Type), zap.String("to", payload.To))
	return nil
}
