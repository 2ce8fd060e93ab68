package sender

import (
	htmltemplate "html/template"
	texttemplate "text/template"
)

// Типы писем, совпадают с ключами маршрутизации
const (
	KindKYCApproved     = "kyc.approved"
	KindKYCRejected     = "kyc.rejected"
	KindPaymentApproved = "payment.approved"
	KindPaymentRejected = "payment.rejected"
)

type template struct {
	subject string
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

func newTemplate(kind, subject, text, html string) template {
	return template{
		subject: subject,
		text:    texttemplate.Must(texttemplate.New(kind).Parse(text)),
		html:    htmltemplate.Must(htmltemplate.New(kind).Parse(html)),
	}
}

var templates = map[string]template{
	KindKYCApproved: newTemplate(KindKYCApproved,
		"Your identity has been verified",
		`Hello {{if .Name}}{{.Name}}{{else}}there{{end}},

Your KYC verification has been approved. All features of your account are now available.
`,
		`<p>Hello {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>Your KYC verification has been <strong>approved</strong>. All features of your account are now available.</p>
`),
	KindKYCRejected: newTemplate(KindKYCRejected,
		"Your identity verification was rejected",
		`Hello {{if .Name}}{{.Name}}{{else}}there{{end}},

Your KYC verification was rejected.
Reason: {{.Reason}}

Please upload your documents again.
`,
		`<p>Hello {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>Your KYC verification was <strong>rejected</strong>.</p>
<p>Reason: {{.Reason}}</p>
<p>Please upload your documents again.</p>
`),
	KindPaymentApproved: newTemplate(KindPaymentApproved,
		"Payment approved",
		`Hello,

Your payment {{.TransactionID}} of {{.Amount}} for "{{.PackageName}}" has been approved.
Your subscription has been updated.
`,
		`<p>Hello,</p>
<p>Your payment <code>{{.TransactionID}}</code> of {{.Amount}} for &quot;{{.PackageName}}&quot; has been <strong>approved</strong>.</p>
<p>Your subscription has been updated.</p>
`),
	KindPaymentRejected: newTemplate(KindPaymentRejected,
		"Payment rejected",
		`Hello,

Your payment {{.TransactionID}} of {{.Amount}} for "{{.PackageName}}" was rejected.
If you believe this is a mistake, please contact support.
`,
		`<p>Hello,</p>
<p>Your payment <code>{{.TransactionID}}</code> of {{.Amount}} for &quot;{{.PackageName}}&quot; was <strong>rejected</strong>.</p>
<p>If you believe this is a mistake, please contact support.</p>
`),
}
