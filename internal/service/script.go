// internal/service/script.go
package service

import (
	"strings"

	"github.com/sneha-eps/Bland-AI-Caller/internal/blandai"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

// reminderScript is the appointment reminder read to the patient.
const reminderScript = `Hi, good morning! I'm calling from Hillside Medical Group.
This call is for {patient_name} to remind you of an upcoming appointment on {appointment_date} at {appointment_time} with {provider_name} at {office_location}.

Please confirm if you'll be able to attend this appointment, or if you need to reschedule or cancel.

Please make sure to arrive 15 minutes prior to your appointment. Also, please make sure to email us your insurance information ASAP so that we can get it verified and avoid any delays on the day of your appointment.

If you wish to cancel or reschedule your appointment, please inform us at least 24 hours in advance to avoid a cancellation charge of $25.00.

For more information, you can call us back on 210-742-6555. Thank you and have a blessed day.`

// voicemailScript is the shorter non-interactive variant.
const voicemailScript = `Hi Good Morning, I am calling from Hillside Medical Group. This call is for {patient_name} to remind you of an upcoming appointment on {appointment_date} at {appointment_time} with {provider_name} at {office_location}.

Please make sure to arrive 15 minutes prior to your appointment. Also, please make sure to email us your insurance information ASAP so that we can get it verified and avoid any delays on the day of your appointment.

If you wish to cancel or reschedule your appointment, please inform us at least 24 hours in advance to avoid a cancellation charge of $25.00. For more information, you can call us back on 210-742-6555.

Thank you and have a blessed day.`

func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

func placeholders(contact model.Contact) map[string]string {
	data := map[string]string{
		"patient_name":     contact.PatientName,
		"appointment_date": contact.AppointmentDate,
		"appointment_time": contact.AppointmentTime,
		"provider_name":    contact.ProviderName,
		"office_location":  contact.OfficeLocation,
	}
	defaults := map[string]string{
		"patient_name":     "the patient",
		"appointment_date": "[DATE]",
		"appointment_time": "[TIME]",
		"provider_name":    "[PROVIDER]",
		"office_location":  "[LOCATION]",
	}
	for k, v := range data {
		if strings.TrimSpace(v) == "" {
			data[k] = defaults[k]
		}
	}
	return data
}

// RenderReminderScript fills the reminder script for one contact.
func RenderReminderScript(contact model.Contact) string {
	return RenderTemplate(reminderScript, placeholders(contact))
}

// RenderVoicemailScript fills the voicemail script.
func RenderVoicemailScript(contact model.Contact) string {
	return RenderTemplate(voicemailScript, placeholders(contact))
}

// scriptFor builds the per-contact call configuration for a campaign run.
func scriptFor() func(model.Contact) blandai.ScriptConfig {
	return func(contact model.Contact) blandai.ScriptConfig {
		return blandai.DefaultScriptConfig(RenderReminderScript(contact))
	}
}
