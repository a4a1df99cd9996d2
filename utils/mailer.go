package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailData struct {
	Subject  string
	To       []string
	Template string
	Data     interface{}
	FromName string
	From     string
}

// Embedded email templates
var emailTemplates = map[string]string{
	"password_reset": `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .credentials { font-size: 18px; margin: 20px 0; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your password has been reset</h2>
    </div>
    <div class="credentials">
        <p>Username: <b>{{.Username}}</b></p>
        <p>New password: <b>{{.Password}}</b></p>
    </div>
    <p>Sign in with the new password and change it in your profile settings.</p>
    <div class="footer">
        <p>&copy; {{.Year}} UniCrew</p>
    </div>
</body>
</html>`,
}

// PasswordResetData fills the password_reset template
type PasswordResetData struct {
	Subject  string
	Username string
	Password string
	Year     int
}

// BuildEmail renders data into a message ready to hand to a dialer
func BuildEmail(data EmailData) (*gomail.Message, error) {
	tmplContent, ok := emailTemplates[data.Template]
	if !ok {
		return nil, fmt.Errorf("template '%s' not found", data.Template)
	}
	tmpl, err := template.New(data.Template).Parse(tmplContent)
	if err != nil {
		return nil, fmt.Errorf("error parsing template: %w", err)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data.Data); err != nil {
		return nil, fmt.Errorf("error executing template: %w", err)
	}

	m := gomail.NewMessage()
	if data.FromName != "" {
		m.SetAddressHeader("From", data.From, data.FromName)
	} else {
		m.SetHeader("From", data.From)
	}
	m.SetHeader("To", data.To...)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body.String())
	return m, nil
}

// PasswordResetEmail builds the mail carrying a freshly generated password
func PasswordResetEmail(from, to, username, password string) (*gomail.Message, error) {
	subject := "UniCrew password reset"
	return BuildEmail(EmailData{
		Subject:  subject,
		To:       []string{to},
		Template: "password_reset",
		From:     from,
		FromName: "UniCrew",
		Data: PasswordResetData{
			Subject:  subject,
			Username: username,
			Password: password,
			Year:     time.Now().Year(),
		},
	})
}
