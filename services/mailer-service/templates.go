package main

import (
	"bytes"
	"fmt"
	"html/template"

	"blood-donation-backend/pkg/queue"
)

var verifyEmailTmpl = template.Must(template.New(queue.TemplateVerifyEmail).Parse(`<html>
<body>
  <p>Hi {{.name}},</p>
  <p>Thanks for registering as a blood donor. Please confirm your email address:</p>
  <p><a href="{{.verifyUrl}}">Verify my email</a></p>
  <p>The link expires in 24 hours.</p>
</body>
</html>`))

var addUserTmpl = template.Must(template.New(queue.TemplateAddUser).Parse(`<html>
<body>
  <p>Hi {{.name}},</p>
  <p>An account has been created for you with the role <b>{{.role}}</b>.</p>
  <p>Email: {{.email}}<br>Password: {{.password}}</p>
  <p>Please log in and change your password.</p>
</body>
</html>`))

// renderTemplate maps an event's template name to HTML content.
func renderTemplate(name string, data map[string]string) (string, error) {
	var tmpl *template.Template
	switch name {
	case queue.TemplateVerifyEmail:
		tmpl = verifyEmailTmpl
	case queue.TemplateAddUser:
		tmpl = addUserTmpl
	default:
		return "", fmt.Errorf("unknown template %q", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
