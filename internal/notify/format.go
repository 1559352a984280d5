package notify

import (
	"fmt"
	"html/template"
	"leadchat-backend/internal/models"
	"net/url"
	"strings"
)

// Summary is the rendered notification content shared by every channel.
type Summary struct {
	Subject string
	Text    string
	HTML    string
}

// FormatLeadSummary renders the lead and a dashboard link for humans.
func FormatLeadSummary(lead *models.Lead, dashboardURL string) (Summary, error) {
	link := dashboardLink(dashboardURL, lead.Email)

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", lead.Name)
	fmt.Fprintf(&b, "Email: %s\n", lead.Email)
	fmt.Fprintf(&b, "Phone: %s\n", valueOr(lead.Phone))
	fmt.Fprintf(&b, "Company: %s\n", valueOr(lead.Company))
	fmt.Fprintf(&b, "Interests: %s\n", interestsText(lead.Interests))
	fmt.Fprintf(&b, "Summary: %s\n", valueOr(lead.Notes))
	if link != "" {
		fmt.Fprintf(&b, "\nView in dashboard: %s\n", link)
	}

	var html strings.Builder
	err := summaryTemplate.Execute(&html, map[string]any{
		"Name":      lead.Name,
		"Email":     lead.Email,
		"Phone":     valueOr(lead.Phone),
		"Company":   valueOr(lead.Company),
		"Interests": interestsText(lead.Interests),
		"Summary":   valueOr(lead.Notes),
		"Link":      link,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("render lead summary: %w", err)
	}

	return Summary{
		Subject: fmt.Sprintf("New lead: %s (%s)", lead.Name, lead.Email),
		Text:    b.String(),
		HTML:    html.String(),
	}, nil
}

var summaryTemplate = template.Must(template.New("lead").Parse(`<h2>New lead captured</h2>
<table>
<tr><td><b>Name</b></td><td>{{.Name}}</td></tr>
<tr><td><b>Email</b></td><td>{{.Email}}</td></tr>
<tr><td><b>Phone</b></td><td>{{.Phone}}</td></tr>
<tr><td><b>Company</b></td><td>{{.Company}}</td></tr>
<tr><td><b>Interests</b></td><td>{{.Interests}}</td></tr>
<tr><td><b>Summary</b></td><td>{{.Summary}}</td></tr>
</table>
{{if .Link}}<p><a href="{{.Link}}">View in dashboard</a></p>{{end}}`))

func dashboardLink(base, email string) string {
	if base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String()
}

func valueOr(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func interestsText(interests []string) string {
	if len(interests) == 0 {
		return "-"
	}
	return strings.Join(interests, ", ")
}
