package notification

import (
	"bytes"
	"text/template"

	"storefront/internal/domain/service"

	"github.com/pkg/errors"
)

type emailTemplate struct {
	subject string
	body    *template.Template
}

var emailTemplates = map[service.NotificationType]emailTemplate{
	service.NotificationVerifyEmail: {
		subject: "Verify your email address",
		body: template.Must(template.New("verify").Parse(
			"Hello {{or .Name \"there\"}},\n\n" +
				"Please confirm your email address by opening the link below:\n\n{{.Link}}\n\n" +
				"The link expires in 24 hours. If you did not create an account you can ignore this email.\n")),
	},
	service.NotificationPasswordReset: {
		subject: "Reset your password",
		body: template.Must(template.New("reset").Parse(
			"We received a request to reset your password.\n\n{{.Link}}\n\n" +
				"The link expires in one hour and can be used once. If you did not ask for this, no action is needed.\n")),
	},
	service.NotificationAdminActivation: {
		subject: "Your administrator account",
		body: template.Must(template.New("admin").Parse(
			"Hello {{.Name}},\n\nAn account with the {{index .Data \"role\"}} role was created for you.\n" +
				"Activate it by verifying your email address:\n\n{{.Link}}\n")),
	},
	service.NotificationVendorApproved: {
		subject: "Your store has been approved",
		body: template.Must(template.New("approved").Parse(
			"Good news! {{index .Data \"storeName\"}} has been approved and your vendor account is now active.\n")),
	},
	service.NotificationVendorRejected: {
		subject: "Your store application",
		body: template.Must(template.New("rejected").Parse(
			"We were unable to approve {{index .Data \"storeName\"}} at this time." +
				"{{with index .Data \"reason\"}}\n\nReason: {{.}}{{end}}\n")),
	},
}

// RenderEmail renders the subject and plain-text body for event.
func RenderEmail(event *service.NotificationEvent) (subject, body string, err error) {
	tmpl, ok := emailTemplates[event.Type]
	if !ok {
		return "", "", errors.Errorf("no email template for %s", event.Type)
	}

	var buf bytes.Buffer
	if err := tmpl.body.Execute(&buf, event); err != nil {
		return "", "", errors.Wrapf(err, "render %s email", event.Type)
	}

	return tmpl.subject, buf.String(), nil
}
