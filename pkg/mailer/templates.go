package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names understood by Render.
const (
	TemplateVerifyEmail   = "verify_email"
	TemplateResetPassword = "reset_password"
)

var verifyEmailHTML = template.Must(template.New(TemplateVerifyEmail).Parse(`
<p>Hi {{.Name}},</p>
<p>Confirm your email address by opening the link below. The link expires in {{.ExpiresIn}}.</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>If you did not create this account, you can ignore this message.</p>
`))

var resetPasswordHTML = template.Must(template.New(TemplateResetPassword).Parse(`
<p>Hi {{.Name}},</p>
<p>We received a request to reset the password for {{.Email}}. The link below expires in {{.ExpiresIn}}.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not request this, your password is unchanged.</p>
`))

// Render produces subject, text, and html bodies for a named template.
func Render(name string, data map[string]any) (subject, text, html string, err error) {
	var tpl *template.Template
	switch name {
	case TemplateVerifyEmail:
		tpl = verifyEmailHTML
		subject = "Verify your email address"
		text = fmt.Sprintf("Verify your email: %v", data["Link"])
	case TemplateResetPassword:
		tpl = resetPasswordHTML
		subject = "Reset your password"
		text = fmt.Sprintf("Reset your password: %v", data["Link"])
	default:
		return "", "", "", fmt.Errorf("mailer: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", "", "", err
	}
	return subject, text, buf.String(), nil
}
