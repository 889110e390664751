package model

// TemplateKind identifies one of the admin-editable notification email
// templates.
type TemplateKind string

const (
	TemplateAppointmentCreated   TemplateKind = "appointment_created"
	TemplateAppointmentUpdated   TemplateKind = "appointment_updated"
	TemplateAppointmentCancelled TemplateKind = "appointment_cancelled"
	TemplateAppointmentReminder  TemplateKind = "appointment_reminder"
	TemplateWaitlistFreed        TemplateKind = "waitlist_slot_freed"
)

// EmailTemplate holds the subject and body for one notification kind. Bodies
// are Go text/template sources; see service/notification for the variables
// each kind receives.
type EmailTemplate struct {
	Base
	Kind    TemplateKind `db:"kind" json:"kind"`
	Subject string       `db:"subject" json:"subject"`
	Body    string       `db:"body" json:"body"`
	Enabled bool         `db:"enabled" json:"enabled"`
}

// DefaultTemplates back every kind so notifications work before an admin has
// saved anything.
var DefaultTemplates = map[TemplateKind]EmailTemplate{
	TemplateAppointmentCreated: {
		Kind:    TemplateAppointmentCreated,
		Subject: "Your appointment is booked",
		Body:    "Hi {{.Name}}, your {{.Service}} appointment on {{.Date}} at {{.Time}} is booked.",
		Enabled: true,
	},
	TemplateAppointmentUpdated: {
		Kind:    TemplateAppointmentUpdated,
		Subject: "Your appointment was updated",
		Body:    "Hi {{.Name}}, your {{.Service}} appointment is now on {{.Date}} at {{.Time}}.",
		Enabled: true,
	},
	TemplateAppointmentCancelled: {
		Kind:    TemplateAppointmentCancelled,
		Subject: "Your appointment was cancelled",
		Body:    "Hi {{.Name}}, your {{.Service}} appointment on {{.Date}} at {{.Time}} was cancelled.",
		Enabled: true,
	},
	TemplateAppointmentReminder: {
		Kind:    TemplateAppointmentReminder,
		Subject: "Appointment reminder",
		Body:    "Hi {{.Name}}, a reminder for your {{.Service}} appointment on {{.Date}} at {{.Time}}.",
		Enabled: true,
	},
	TemplateWaitlistFreed: {
		Kind:    TemplateWaitlistFreed,
		Subject: "A slot opened up",
		Body:    "Hi {{.Name}}, a {{.Service}} slot on {{.Date}} at {{.Time}} just opened up. Book it before someone else does.",
		Enabled: true,
	},
}

type UpsertTemplateRequest struct {
	Kind    TemplateKind `json:"kind" binding:"required"`
	Subject string       `json:"subject" binding:"required"`
	Body    string       `json:"body" binding:"required"`
	Enabled *bool        `json:"enabled"`
}
