package catalog

import "fmt"

// EmailTemplate is the closed set of outreach emails. Rendering is an
// exhaustive switch, so an unmapped template is a compile-time gap rather
// than a runtime lookup miss; only the key-to-template boundary stays dynamic.
type EmailTemplate int

const (
	EmailMissedCall1 EmailTemplate = iota
	EmailMissedCall2
	EmailMissedCall3
	EmailAnswered1
)

// EmailTemplateForKey resolves a catalog step key to its template.
func EmailTemplateForKey(key string) (EmailTemplate, bool) {
	switch key {
	case "missed_call_1":
		return EmailMissedCall1, true
	case "missed_call_2":
		return EmailMissedCall2, true
	case "missed_call_3":
		return EmailMissedCall3, true
	case "answered_1":
		return EmailAnswered1, true
	}
	return 0, false
}

const brandColor = "#22c55e"

func baseLayout(content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><meta name="viewport" content="width=device-width,initial-scale=1"></head>
<body style="margin:0;padding:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;background:#f8fafc;">
<div style="max-width:600px;margin:0 auto;padding:32px 24px;">
%s
<div style="margin-top:32px;padding-top:16px;border-top:1px solid #e2e8f0;font-size:12px;color:#94a3b8;">
<p>Calltide - AI Voice Agents for Local Businesses</p>
</div>
</div>
</body>
</html>`, content)
}

func ctaButton(label string) string {
	return fmt.Sprintf(`<a href="https://calltide.com/demo" style="display:inline-block;background:%s;color:#fff;padding:12px 24px;border-radius:8px;text-decoration:none;font-weight:600;margin-top:16px;">%s</a>`, brandColor, label)
}

// Render produces the subject and HTML body personalized for a business.
func (t EmailTemplate) Render(businessName string) (subject, html string) {
	switch t {
	case EmailMissedCall1:
		subject = fmt.Sprintf("%s, you're missing calls - we tested it", businessName)
		html = baseLayout(fmt.Sprintf(`<h2 style="color:#0f172a;margin-bottom:8px;">We called. Nobody picked up.</h2>
<p style="color:#475569;line-height:1.6;">Hi there,<br><br>
We just called <strong>%s</strong> and it went unanswered. That's a potential customer lost.</p>
<p style="color:#475569;line-height:1.6;">Calltide is an AI voice agent that answers every call 24/7, in English and Spanish.
It books appointments, takes messages, and never puts anyone on hold.</p>
%s`, businessName, ctaButton("See How It Works →")))
	case EmailMissedCall2:
		subject = fmt.Sprintf("Quick question, %s", businessName)
		html = baseLayout(fmt.Sprintf(`<p style="color:#475569;line-height:1.6;">Following up: we noticed %s doesn't have a way to catch after-hours calls.</p>
<p style="color:#475569;line-height:1.6;">Our clients typically recover <strong>15-30 missed calls per month</strong>,
each worth $200-500 in revenue. That's $3,000-$15,000 left on the table.</p>
<p style="color:#475569;line-height:1.6;">Would a quick 10-minute demo make sense? We'll show you exactly how it works with your business type.</p>
%s`, businessName, ctaButton("Book a Demo")))
	case EmailMissedCall3:
		subject = "Last note from Calltide"
		html = baseLayout(fmt.Sprintf(`<p style="color:#475569;line-height:1.6;">Hi, just a final follow-up for %s.</p>
<p style="color:#475569;line-height:1.6;">If now isn't the right time, no worries at all. But if missed calls
are costing you customers, we'd love to help.</p>
<p style="color:#475569;line-height:1.6;">Reply to this email anytime, happy to answer questions.</p>
<p style="color:%s;font-weight:600;">- Team Calltide</p>`, businessName, brandColor))
	case EmailAnswered1:
		subject = fmt.Sprintf("%s - save on receptionist costs?", businessName)
		html = baseLayout(fmt.Sprintf(`<p style="color:#475569;line-height:1.6;">Hi there,<br><br>
We called %s and someone picked up! But what happens
after hours, on weekends, or when you're slammed with customers?</p>
<p style="color:#475569;line-height:1.6;">Calltide handles overflow and after-hours calls automatically.
Same quality, fraction of the cost of a full-time receptionist.</p>
%s`, businessName, ctaButton("Learn More →")))
	}
	return subject, html
}
