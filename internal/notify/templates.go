package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// Message is the composed, channel-specific content for one notification.
type Message struct {
	SMSText      string
	EmailSubject string
	EmailHTML    string
}

// templateView is the flattened, pre-formatted data handed to the templates.
type templateView struct {
	Name        string
	Medicine    string
	Dosage      string
	Time        string
	Appointment string
	DaysLeft    int
	Stock       int
	Threshold   int
}

var smsTemplates = map[Kind]string{
	KindRoutine:     "MedPal reminder: hi {{.Name}}, it's time to take your medicine {{.Medicine}} ({{.Dosage}}) scheduled for {{.Time}}.",
	KindCritical:    "MedPal CRITICAL alert: hi {{.Name}}, please take your critical medicine {{.Medicine}} ({{.Dosage}}) now.",
	KindMissed:      "MedPal alert: hi {{.Name}}, you missed your medicine {{.Medicine}} ({{.Dosage}}) scheduled for {{.Time}}.",
	KindAppointment: "MedPal reminder: hi {{.Name}}, you have an appointment on {{.Appointment}}.",
	KindRefill:      "MedPal refill reminder: hi {{.Name}}, your medicine {{.Medicine}} will run out soon. Only {{.DaysLeft}} days left.",
	KindLowStock:    "MedPal stock alert: hi {{.Name}}, your stock for {{.Medicine}} is low ({{.Stock}} of {{.Threshold}} left). Please refill soon.",
}

var emailSubjects = map[Kind]string{
	KindRoutine:     "MedPal Medicine Reminder",
	KindCritical:    "Critical Medicine Reminder",
	KindMissed:      "Missed Medicine Alert",
	KindAppointment: "Appointment Reminder",
	KindRefill:      "Refill Reminder",
	KindLowStock:    "Low Stock Alert",
}

var emailTemplates = map[Kind]string{
	KindRoutine: `<h1>Medicine Reminder</h1>
<p>Hi {{.Name}}, it's time to take your medicine.</p>
<p><strong>{{.Medicine}}</strong> &mdash; {{.Dosage}}, scheduled for {{.Time}}.</p>`,
	KindCritical: `<h1>Critical Medicine Reminder</h1>
<p>Hi {{.Name}}, please take your critical medicine now.</p>
<p><strong>{{.Medicine}}</strong> &mdash; {{.Dosage}}.</p>`,
	KindMissed: `<h1>You missed your medicine</h1>
<p>Hi {{.Name}}, the dose of <strong>{{.Medicine}}</strong> ({{.Dosage}}) scheduled for {{.Time}} was not taken.</p>`,
	KindAppointment: `<h1>Appointment Reminder</h1>
<p>Hi {{.Name}}, you have an appointment on {{.Appointment}}.</p>`,
	KindRefill: `<h1>Refill Reminder</h1>
<p>Hi {{.Name}}, your medicine <strong>{{.Medicine}}</strong> will run out soon. Only {{.DaysLeft}} days left.</p>`,
	KindLowStock: `<h1>Low Stock Alert</h1>
<p>Hi {{.Name}}, your stock for <strong>{{.Medicine}}</strong> is low: {{.Stock}} left, threshold {{.Threshold}}.</p>
<p>Please refill soon.</p>`,
}

var (
	parsedSMS   = map[Kind]*template.Template{}
	parsedEmail = map[Kind]*htmltemplate.Template{}
)

func init() {
	for kind, text := range smsTemplates {
		parsedSMS[kind] = template.Must(template.New(string(kind) + "_sms").Parse(text))
	}
	for kind, html := range emailTemplates {
		parsedEmail[kind] = htmltemplate.Must(htmltemplate.New(string(kind) + "_email").Parse(html))
	}
}

// Compose renders the SMS body, email subject and email HTML for the given
// kind. It is deterministic in its inputs.
func Compose(kind Kind, data Data) (Message, error) {
	smsTmpl, ok := parsedSMS[kind]
	if !ok {
		return Message{}, fmt.Errorf("unknown notification kind: %s", kind)
	}

	view := templateView{
		Name:        data.UserName,
		Medicine:    data.MedicineName,
		Dosage:      data.Dosage,
		Appointment: data.AppointmentDate,
		DaysLeft:    data.DaysLeft,
		Stock:       data.CurrentStock,
		Threshold:   data.Threshold,
	}
	if view.Name == "" {
		view.Name = "there"
	}
	if !data.ScheduledTime.IsZero() {
		view.Time = data.ScheduledTime.Format("3:04 PM")
	}

	var sms bytes.Buffer
	if err := smsTmpl.Execute(&sms, view); err != nil {
		return Message{}, fmt.Errorf("render sms template: %w", err)
	}

	var html bytes.Buffer
	if err := parsedEmail[kind].Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("render email template: %w", err)
	}

	return Message{
		SMSText:      sms.String(),
		EmailSubject: emailSubjects[kind],
		EmailHTML:    html.String(),
	}, nil
}
