package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/warroom/warroom-bot/internal/entities"
	"github.com/warroom/warroom-bot/internal/models"
)

// BOM makes spreadsheet tools open the file as UTF-8
const BOM = "\uFEFF"

// DateLayout is the pt-BR date format used for every timestamp in a report
const DateLayout = "02/01/2006 15:04"

// section is one titled block of the report. Sections with no rows are left out.
type section struct {
	title  string
	header []string
	rows   [][]string
}

// WriteCSV serializes the summary as a sectioned CSV document
func WriteCSV(w io.Writer, summary *models.DashboardSummary) error {
	if summary == nil {
		return fmt.Errorf("summary is required")
	}

	if _, err := io.WriteString(w, BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	for i, s := range buildSections(summary) {
		if i > 0 {
			if err := cw.Write(nil); err != nil {
				return err
			}
		}
		if err := cw.Write([]string{s.title}); err != nil {
			return err
		}
		if len(s.header) > 0 {
			if err := cw.Write(s.header); err != nil {
				return err
			}
		}
		if err := cw.WriteAll(s.rows); err != nil {
			return fmt.Errorf("failed to write section %q: %w", s.title, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// CSV returns the report as bytes
func CSV(summary *models.DashboardSummary) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, summary); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// Filename names the report artifact after the activation and generation date
func Filename(summary *models.DashboardSummary) string {
	name := strings.Trim(unsafeFilenameChars.ReplaceAllString(entities.Normalize(summary.ActivationName), "-"), "-")
	if name == "" {
		name = "ativacao"
	}
	return fmt.Sprintf("relatorio-%s-%s.csv", name, summary.GeneratedAt.In(location(summary)).Format("2006-01-02"))
}

func buildSections(s *models.DashboardSummary) []section {
	loc := location(s)
	date := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.In(loc).Format(DateLayout)
	}

	sections := []section{
		{
			title: "Relatório War Room",
			rows: [][]string{
				{"Ativação", s.ActivationName},
				{"ID", s.ActivationID},
				{"Gerado em", date(s.GeneratedAt)},
			},
		},
		{
			title:  "Indicadores",
			header: []string{"Indicador", "Valor"},
			rows: [][]string{
				{"Total de menções", itoa(s.KPIs.TotalMentions)},
				{"Positivas", itoa(s.KPIs.Sentiment.Positive)},
				{"Negativas", itoa(s.KPIs.Sentiment.Negative)},
				{"Neutras", itoa(s.KPIs.Sentiment.Neutral)},
				{"Sentimento líquido", itoa(s.KPIs.NetSentiment)},
				{"Razão negativas/positivas", s.KPIs.NegativeRatio},
				{"Risco médio", itoa(s.KPIs.AverageRisk)},
				{"Menções de alto risco", itoa(s.KPIs.HighRiskMentions)},
				{"Crises ativas", itoa(s.KPIs.ActiveCrises)},
				{"Perfis de ameaça", itoa(s.KPIs.ThreatProfiles)},
				{"Nível de ameaça", string(s.KPIs.GlobalThreatLevel)},
			},
		},
	}

	keywords := section{title: "Ranking de palavras-chave", header: []string{"Posição", "Palavra-chave", "Ocorrências", "Sentimento"}}
	for i, kc := range s.TopKeywords {
		keywords.rows = append(keywords.rows, []string{itoa(i + 1), kc.Keyword, itoa(kc.Count), string(kc.Sentiment)})
	}

	emergent := section{title: "Palavras-chave emergentes", header: []string{"Palavra-chave", "Ocorrências", "Sentimento"}}
	for _, kc := range s.EmergentKeywords {
		emergent.rows = append(emergent.rows, []string{kc.Keyword, itoa(kc.Count), string(kc.Sentiment)})
	}

	targets := section{title: "Menções por alvo", header: []string{"Alvo", "Menções", "Positivas", "Negativas", "Neutras"}}
	for _, em := range s.EntityMentions {
		targets.rows = append(targets.rows, []string{
			em.Entity, itoa(em.Count), itoa(em.Sentiment.Positive), itoa(em.Sentiment.Negative), itoa(em.Sentiment.Neutral),
		})
	}

	sources := section{title: "Fontes", header: []string{"Fonte", "Menções", "Última menção"}}
	for _, sc := range s.Sources {
		sources.rows = append(sources.rows, []string{sc.Source, itoa(sc.Count), date(sc.LatestAt)})
	}

	risk := section{title: "Menções de maior risco", header: []string{"Data", "Fonte", "Tipo", "Título", "Sentimento", "Risco", "URL"}}
	for _, item := range s.TopRiskItems {
		risk.rows = append(risk.rows, []string{
			date(item.CreatedAt), item.SourceName, item.SourceType, item.Title,
			string(item.Sentiment.Normalize()), itoa(item.RiskScore), item.URL,
		})
	}

	crises := section{title: "Crises", header: []string{"Data", "Título", "Severidade", "Status"}}
	for _, c := range s.Crises {
		crises.rows = append(crises.rows, []string{date(c.CreatedAt), c.Title, c.Severity, c.Status})
	}

	for _, optional := range []section{keywords, emergent, targets, sources, risk, crises} {
		if len(optional.rows) > 0 {
			sections = append(sections, optional)
		}
	}
	return sections
}

func location(s *models.DashboardSummary) *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
