package catalog

import "fmt"

// SMSTemplate is the closed set of outreach SMS bodies.
type SMSTemplate int

const (
	SMSMissed1 SMSTemplate = iota
	SMSMissed2
)

// SMSTemplateForKey resolves a catalog step key to its template.
func SMSTemplateForKey(key string) (SMSTemplate, bool) {
	switch key {
	case "missed_sms_1":
		return SMSMissed1, true
	case "missed_sms_2":
		return SMSMissed2, true
	}
	return 0, false
}

// Render produces the SMS body personalized for a business. Every body ends
// with the carrier-required STOP opt-out instruction.
func (t SMSTemplate) Render(businessName string) string {
	switch t {
	case SMSMissed1:
		return fmt.Sprintf("Hi %s! We just tried calling and couldn't get through. Calltide is an AI receptionist that makes sure you never miss a call again: 24/7, bilingual. Interested? Reply YES for a quick demo. Reply STOP to opt out.", businessName)
	case SMSMissed2:
		return fmt.Sprintf("Hey %s, just following up. Missing calls = missing revenue. Our AI answers, books appointments & takes messages for you. 10-min demo? Reply YES or visit calltide.com. Reply STOP to opt out.", businessName)
	}
	return ""
}
