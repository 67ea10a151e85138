// Package console renders security reports for the terminal.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/exploopio/emerald/pkg/report"
	"github.com/exploopio/emerald/pkg/shared/severity"
)

// UrgentActionCount is how many remediation steps the compromised alert lists.
const UrgentActionCount = 5

// Band is a coarse reading of the security score.
type Band string

const (
	BandPoor Band = "poor"
	BandFair Band = "fair"
	BandGood Band = "good"
)

// ScoreBand classifies a score: below 50 is poor, below 75 fair, else good.
func ScoreBand(score int) Band {
	switch {
	case score < 50:
		return BandPoor
	case score < 75:
		return BandFair
	default:
		return BandGood
	}
}

func (b Band) style() pterm.Color {
	switch b {
	case BandPoor:
		return pterm.FgRed
	case BandFair:
		return pterm.FgYellow
	default:
		return pterm.FgGreen
	}
}

func riskColor(l severity.Level) pterm.Color {
	if l.IsAtLeast(severity.High) {
		return pterm.FgRed
	}
	return pterm.FgYellow
}

// Renderer writes reports to w.
type Renderer struct {
	w io.Writer
}

// New creates a Renderer writing to w.
func New(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render prints rep for target ip.
func (r *Renderer) Render(rep *report.SecurityReport, ip string) error {
	if rep == nil {
		return fmt.Errorf("console: nil report")
	}

	var b strings.Builder

	b.WriteString(pterm.DefaultSection.Sprintln("Security Report for " + ip))

	band := ScoreBand(rep.Score)
	b.WriteString(fmt.Sprintf("Security Score: %s  (%s)\n",
		band.style().Sprintf("%d/100", rep.Score), band))
	b.WriteString(fmt.Sprintf("Status:         %s\n", rep.Status))
	b.WriteString(fmt.Sprintf("Confidence:     %d%%\n", rep.Confidence))
	if rep.Summary != "" {
		b.WriteString("\n" + rep.Summary + "\n")
	}

	if rep.Compromised() {
		b.WriteString("\n")
		b.WriteString(pterm.Error.Sprintln("System Compromised - Threat Level: Likely Compromised"))
		if len(rep.Indicators) > 0 {
			b.WriteString(pterm.Bold.Sprint("Indicators of Compromise:") + "\n")
			b.WriteString(bullets(rep.Indicators))
		}
		if actions := rep.UrgentActions(UrgentActionCount); len(actions) > 0 {
			b.WriteString(pterm.FgRed.Sprint("URGENT: Immediate Actions Required") + "\n")
			b.WriteString(numbered(actions))
		}
	}

	if len(rep.Vulnerabilities) > 0 {
		b.WriteString(pterm.DefaultSection.WithLevel(2).Sprintln(
			fmt.Sprintf("Open Ports Detected (%d)", len(rep.Vulnerabilities))))
		counts := rep.RiskCounts()
		b.WriteString(fmt.Sprintf("Critical: %d  High: %d  Medium: %d  Low: %d\n\n",
			counts.Critical, counts.High, counts.Medium, counts.Low))
		table, err := portTable(rep.Vulnerabilities)
		if err != nil {
			return err
		}
		b.WriteString(table)

		for _, v := range rep.Vulnerabilities {
			if v.Description == "" && len(v.ProtectionMethods) == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("\nPort %d - %s\n", v.Port, v.Service))
			if v.Description != "" {
				b.WriteString("  " + v.Description + "\n")
			}
			if len(v.ProtectionMethods) > 0 {
				b.WriteString("  Protection Methods:\n")
				b.WriteString(indent(bullets(v.ProtectionMethods), "  "))
			}
		}
	}

	section := func(title string, body string) {
		b.WriteString(pterm.DefaultSection.WithLevel(2).Sprintln(title))
		b.WriteString(body)
	}
	if len(rep.Recommendations) > 0 {
		section("Security Recommendations", bullets(rep.Recommendations))
	}
	if len(rep.RemediationPlan) > 0 {
		section("Remediation Plan", numbered(rep.RemediationPlan))
	}
	if len(rep.Sources) > 0 {
		lines := make([]string, len(rep.Sources))
		for i, s := range rep.Sources {
			lines[i] = s.Title + " <" + s.URI + ">"
		}
		section("Sources", bullets(lines))
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func portTable(vulns []report.PortVulnerability) (string, error) {
	data := pterm.TableData{{"Port", "Service", "Risk"}}
	for _, v := range vulns {
		data = append(data, []string{
			strconv.Itoa(v.Port),
			v.Service,
			riskColor(v.Risk).Sprint(v.Risk.Label()),
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(data).Srender()
	if err != nil {
		return "", fmt.Errorf("failed to render table: %w", err)
	}
	return out + "\n", nil
}

func bullets(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("  • " + it + "\n")
	}
	return b.String()
}

func numbered(items []string) string {
	var b strings.Builder
	for i, it := range items {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, it))
	}
	return b.String()
}

func indent(s, prefix string) string {
	lines := strings.SplitAfter(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "")
}
