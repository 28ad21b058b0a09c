package service

import (
	"fmt"
	"strings"

	"subtrack/internal/domain/entity"

	"github.com/osteele/liquid"
	"github.com/shopspring/decimal"
)

// Urgency levels attached to a reminder.
const (
	UrgencyCritical = "critical"
	UrgencyHigh     = "high"
	UrgencyMedium   = "medium"
	UrgencyLow      = "low"
)

const longDateLayout = "Monday, January 2, 2006"

const textTemplate = `Hi there,

Your {{ name }} subscription renews {{ when }}.

Renewal amount: {{ amount }}
Renewal date: {{ renewal_date }}
Days remaining: {{ days }}

Monthly cost: {{ amount }}
Yearly projection: {{ yearly }}
{% if show_tips %}
Quick tips:
- Check whether you still use {{ name }}.
- Cancel before {{ renewal_date }} to avoid the charge.
- Look for a cheaper plan or an annual discount.
{% endif %}
Manage your subscriptions: {{ dashboard_url }}
{% if website_url != "" %}{{ name }} website: {{ website_url }}
{% endif %}`

const htmlTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <div style="max-width: 600px; margin: 0 auto;">
    <div style="background: {{ color }}; color: #ffffff; padding: 20px; border-radius: 8px 8px 0 0;">
      <h1 style="margin: 0;">{{ name | escape }} renews {{ when }}</h1>
    </div>
    <div style="padding: 20px; border: 1px solid #e5e7eb; border-top: none;">
      <table style="width: 100%;">
        <tr><td>Renewal amount</td><td><strong>{{ amount }}</strong></td></tr>
        <tr><td>Renewal date</td><td>{{ renewal_date }}</td></tr>
        <tr><td>Days remaining</td><td>{{ days }}</td></tr>
        <tr><td>Monthly cost</td><td>{{ amount }}</td></tr>
        <tr><td>Yearly projection</td><td>{{ yearly }}</td></tr>
      </table>
      {% if show_tips %}
      <h3>Quick tips</h3>
      <ul>
        <li>Check whether you still use {{ name | escape }}.</li>
        <li>Cancel before {{ renewal_date }} to avoid the charge.</li>
        <li>Look for a cheaper plan or an annual discount.</li>
      </ul>
      {% endif %}
      <p><a href="{{ dashboard_url | escape }}">Manage your subscriptions</a></p>
      {% if website_url != "" %}<p><a href="{{ website_url | escape }}">Visit {{ name | escape }}</a></p>{% endif %}
    </div>
  </div>
</body>
</html>`

// ReminderEmail is a rendered reminder.
type ReminderEmail struct {
	Subject string
	Text    string
	HTML    string
	Urgency string
}

// MessageComposer renders reminder emails from liquid templates.
type MessageComposer struct {
	text         *liquid.Template
	html         *liquid.Template
	dashboardURL string
}

// NewMessageComposer parses the reminder templates once.
func NewMessageComposer(dashboardURL string) (*MessageComposer, error) {
	engine := liquid.NewEngine()

	text, err := engine.ParseString(textTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}
	htmlTpl, err := engine.ParseString(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	return &MessageComposer{text: text, html: htmlTpl, dashboardURL: dashboardURL}, nil
}

// Compose renders the reminder for a subscription renewing in daysUntilRenewal days.
func (c *MessageComposer) Compose(sub *entity.Subscription, daysUntilRenewal int) (*ReminderEmail, error) {
	urgency := Urgency(daysUntilRenewal)
	bindings := map[string]interface{}{
		"name":          sub.Name,
		"when":          whenPhrase(daysUntilRenewal),
		"amount":        sub.Cost.StringFixed(2),
		"yearly":        sub.Cost.Mul(decimal.NewFromInt(12)).StringFixed(2),
		"renewal_date":  sub.RenewalDate.Format(longDateLayout),
		"days":          daysUntilRenewal,
		"show_tips":     daysUntilRenewal <= 3,
		"dashboard_url": c.dashboardURL,
		"website_url":   sub.WebsiteURL,
		"color":         urgencyColor(urgency),
	}

	text, err := c.text.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render text body: %w", err)
	}
	htmlBody, err := c.html.RenderString(bindings)
	if err != nil {
		return nil, fmt.Errorf("render html body: %w", err)
	}

	return &ReminderEmail{
		Subject: Subject(sub.Name, daysUntilRenewal),
		Text:    strings.TrimSpace(text) + "\n",
		HTML:    htmlBody,
		Urgency: urgency,
	}, nil
}

// Subject returns the subject line for a reminder.
func Subject(name string, daysUntilRenewal int) string {
	switch daysUntilRenewal {
	case 0:
		return fmt.Sprintf("⚠️ URGENT: %s renews TODAY!", name)
	case 1:
		return fmt.Sprintf("⏰ %s renews tomorrow", name)
	case 3:
		return fmt.Sprintf("🔔 %s renews in 3 days", name)
	case 7:
		return fmt.Sprintf("📅 %s renews in 1 week", name)
	default:
		return fmt.Sprintf("🔔 %s renews in %d days", name, daysUntilRenewal)
	}
}

// Urgency grades how soon the renewal is.
func Urgency(daysUntilRenewal int) string {
	switch {
	case daysUntilRenewal <= 0:
		return UrgencyCritical
	case daysUntilRenewal == 1:
		return UrgencyHigh
	case daysUntilRenewal <= 3:
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}

func whenPhrase(days int) string {
	switch days {
	case 0:
		return "today"
	case 1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func urgencyColor(urgency string) string {
	switch urgency {
	case UrgencyCritical:
		return "#dc2626"
	case UrgencyHigh:
		return "#ea580c"
	case UrgencyMedium:
		return "#ca8a04"
	default:
		return "#2563eb"
	}
}
