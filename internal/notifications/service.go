package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/warroom/warroom-bot/internal/config"
	"github.com/warroom/warroom-bot/internal/models"
	"github.com/warroom/warroom-bot/internal/timeseries"
	"gopkg.in/gomail.v2"
)

const (
	teamsTopItems = 5
	emailTopItems = 10
	summaryLength = 200
)

// mailSender is satisfied by *gomail.Dialer
type mailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	mailer mailSender
	loc    *time.Location
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message card
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	loc := timeseries.LoadLocation(cfg.TimeZone)
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		mailer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		loc:    loc,
	}
}

// SendReport delivers an exported summary via the configured channels
func (s *Service) SendReport(ctx context.Context, report *models.Report) error {
	if report == nil || report.Summary == nil {
		return fmt.Errorf("report has no summary")
	}

	return s.deliver("report",
		func() error { return s.postTeams(ctx, s.buildTeamsMessage(report)) },
		func() error { return s.sendReportEmail(report) },
	)
}

// SendAlert delivers an urgent alert via the configured channels
func (s *Service) SendAlert(ctx context.Context, alert *models.Alert) error {
	if alert == nil {
		return fmt.Errorf("alert is nil")
	}

	return s.deliver("alert",
		func() error { return s.postTeams(ctx, s.buildTeamsAlert(alert)) },
		func() error { return s.sendAlertEmail(alert) },
	)
}

// deliver runs every configured channel; a failing channel does not stop the others
func (s *Service) deliver(kind string, teams, email func() error) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := teams(); err != nil {
			logrus.Errorf("Failed to send Teams %s: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Successfully sent %s to Teams", kind)
		}
	}

	if s.config.NotificationEmail != "" {
		if err := email(); err != nil {
			logrus.Errorf("Failed to send %s email: %v", kind, err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Successfully sent %s via email", kind)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) postTeams(ctx context.Context, message *TeamsMessage) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(report *models.Report) *TeamsMessage {
	summary := report.Summary
	kpis := summary.KPIs

	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: levelColor(kpis.GlobalThreatLevel),
		Title:      fmt.Sprintf("Relatório War Room - %s", summary.ActivationName),
		Text:       fmt.Sprintf("%d menções analisadas. Nível de ameaça: **%s**", kpis.TotalMentions, kpis.GlobalThreatLevel),
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle:    "Indicadores",
		ActivitySubtitle: s.formatTime(summary.GeneratedAt),
		Facts:            kpiFacts(kpis),
		Markdown:         true,
	})

	if len(summary.TopRiskItems) > 0 {
		var lines []string
		for i, item := range summary.TopRiskItems {
			if i == teamsTopItems {
				break
			}
			lines = append(lines, fmt.Sprintf("**[%s](%s)** - %s (risco %d)",
				item.Title, item.URL, item.SourceName, item.RiskScore))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Menções de maior risco",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	if len(summary.ThreatProfiles) > 0 {
		var facts []TeamsFact
		for i, profile := range summary.ThreatProfiles {
			if i == teamsTopItems {
				break
			}
			facts = append(facts, TeamsFact{
				Name:  profile.DisplayName,
				Value: fmt.Sprintf("%s, %d menções, risco máx. %d", profile.Level, profile.MentionCount, profile.MaxRisk),
			})
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Perfis de ameaça",
			Facts:         facts,
			Markdown:      true,
		})
	}

	if report.ArchivePath != "" {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityText: fmt.Sprintf("CSV arquivado em `%s`", report.ArchivePath),
			Markdown:     true,
		})
	}

	return message
}

func (s *Service) buildTeamsAlert(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: "d13438",
		Title:      alert.Title,
		Text:       alert.Message,
	}

	if len(alert.Items) > 0 {
		var lines []string
		for i, item := range alert.Items {
			if i == teamsTopItems {
				break
			}
			lines = append(lines, fmt.Sprintf("**[%s](%s)** - %s (risco %d, %s)",
				item.Title, item.URL, item.SourceName, item.RiskScore, s.formatTime(item.CreatedAt)))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Menções",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func kpiFacts(kpis models.KPIs) []TeamsFact {
	return []TeamsFact{
		{Name: "Menções", Value: fmt.Sprintf("%d", kpis.TotalMentions)},
		{Name: "Positivas", Value: fmt.Sprintf("%d", kpis.Sentiment.Positive)},
		{Name: "Negativas", Value: fmt.Sprintf("%d", kpis.Sentiment.Negative)},
		{Name: "Neutras", Value: fmt.Sprintf("%d", kpis.Sentiment.Neutral)},
		{Name: "Saldo", Value: fmt.Sprintf("%d", kpis.NetSentiment)},
		{Name: "Razão negativa", Value: kpis.NegativeRatio},
		{Name: "Risco médio", Value: fmt.Sprintf("%d", kpis.AverageRisk)},
		{Name: "Alto risco", Value: fmt.Sprintf("%d", kpis.HighRiskMentions)},
		{Name: "Crises ativas", Value: fmt.Sprintf("%d", kpis.ActiveCrises)},
		{Name: "Nível de ameaça", Value: string(kpis.GlobalThreatLevel)},
	}
}

func levelColor(level models.GlobalThreatLevel) string {
	switch level {
	case models.GlobalCritical:
		return "d13438"
	case models.GlobalHigh:
		return "ff8c00"
	case models.GlobalModerate:
		return "ffb900"
	default:
		return "107c10"
	}
}

func (s *Service) formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(s.loc).Format("02/01/2006 15:04")
}

func (s *Service) sendReportEmail(report *models.Report) error {
	summary := report.Summary
	subject := fmt.Sprintf("Relatório War Room - %s (%d menções, %s)",
		summary.ActivationName, summary.KPIs.TotalMentions, summary.KPIs.GlobalThreatLevel)

	htmlBody, err := s.buildEmailHTML(summary)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := s.newMessage(subject)
	m.SetBody("text/plain", s.buildEmailText(summary))
	m.AddAlternative("text/html", htmlBody)

	if len(report.CSV) > 0 && report.Filename != "" {
		data := report.CSV
		m.Attach(report.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {"text/csv; charset=utf-8"}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) sendAlertEmail(alert *models.Alert) error {
	var text strings.Builder
	text.WriteString(alert.Message + "\n")
	for i, item := range alert.Items {
		if i == emailTopItems {
			break
		}
		text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, item.Title))
		text.WriteString(fmt.Sprintf("   Fonte: %s | Risco: %d | Data: %s\n", item.SourceName, item.RiskScore, s.formatTime(item.CreatedAt)))
		if item.URL != "" {
			text.WriteString(fmt.Sprintf("   URL: %s\n", item.URL))
		}
	}

	m := s.newMessage("[ALERTA] " + alert.Title)
	m.SetHeader("X-Priority", "1")
	m.SetBody("text/plain", text.String())

	if err := s.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) newMessage(subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	return m
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"truncate": truncate,
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Relatório War Room</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #1f2937; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .mention { border-left: 4px solid #d13438; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .mention-title { font-weight: bold; margin-bottom: 5px; }
        .mention-meta { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Relatório War Room - {{.Summary.ActivationName}}</h1>
        <p>Gerado em {{.GeneratedAt}}</p>
    </div>

    <div class="summary">
        <h2>Indicadores</h2>
        <p><strong>Menções:</strong> {{.Summary.KPIs.TotalMentions}}</p>
        <p><strong>Positivas / Negativas / Neutras:</strong> {{.Summary.KPIs.Sentiment.Positive}} / {{.Summary.KPIs.Sentiment.Negative}} / {{.Summary.KPIs.Sentiment.Neutral}}</p>
        <p><strong>Razão negativa:</strong> {{.Summary.KPIs.NegativeRatio}}</p>
        <p><strong>Risco médio:</strong> {{.Summary.KPIs.AverageRisk}}</p>
        <p><strong>Nível de ameaça:</strong> {{.Summary.KPIs.GlobalThreatLevel}}</p>
    </div>

    {{if .Items}}
    <h2>Menções de maior risco</h2>
    {{range .Items}}
        <div class="mention">
            <div class="mention-title">
                <a href="{{.URL}}" target="_blank">{{.Title}}</a>
            </div>
            <div class="mention-meta">{{.SourceName}} | risco {{.RiskScore}}</div>
            {{if .Summary}}<p>{{truncate .Summary}}</p>{{end}}
        </div>
    {{end}}
    {{end}}

    <hr>
    <p><small>O relatório completo segue em anexo (CSV).</small></p>
</body>
</html>
`))

func (s *Service) buildEmailHTML(summary *models.DashboardSummary) (string, error) {
	items := summary.TopRiskItems
	if len(items) > emailTopItems {
		items = items[:emailTopItems]
	}

	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, map[string]interface{}{
		"Summary":     summary,
		"GeneratedAt": s.formatTime(summary.GeneratedAt),
		"Items":       items,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(summary *models.DashboardSummary) string {
	var text strings.Builder
	kpis := summary.KPIs

	text.WriteString(fmt.Sprintf("Relatório War Room - %s\n", summary.ActivationName))
	text.WriteString(fmt.Sprintf("Gerado em: %s\n\n", s.formatTime(summary.GeneratedAt)))

	text.WriteString("INDICADORES\n")
	text.WriteString("===========\n")
	for _, fact := range kpiFacts(kpis) {
		text.WriteString(fmt.Sprintf("%s: %s\n", fact.Name, fact.Value))
	}

	if len(summary.TopRiskItems) > 0 {
		text.WriteString("\nMENÇÕES DE MAIOR RISCO\n")
		text.WriteString("======================\n")
		for i, item := range summary.TopRiskItems {
			if i == emailTopItems {
				break
			}
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, item.Title))
			text.WriteString(fmt.Sprintf("   Fonte: %s | Risco: %d | Data: %s\n",
				item.SourceName, item.RiskScore, s.formatTime(item.CreatedAt)))
			if item.URL != "" {
				text.WriteString(fmt.Sprintf("   URL: %s\n", item.URL))
			}
			if item.Summary != "" {
				text.WriteString(fmt.Sprintf("   Resumo: %s\n", truncate(item.Summary)))
			}
		}
	}

	text.WriteString("\n---\nO relatório completo segue em anexo (CSV).\n")

	return text.String()
}

func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryLength {
		return s
	}
	return string(runes[:summaryLength]) + "..."
}
