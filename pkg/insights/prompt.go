package insights

import (
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/exploopio/emerald/pkg/gemini"
	"github.com/exploopio/emerald/pkg/report"
	"github.com/exploopio/emerald/pkg/shared/severity"
)

const promptTemplate = `Perform a security research on IP %s with open ports: %s.
Provide a detailed security assessment including:
1. A security score from 0-100.
2. A status (secure, at_risk, or compromised).
3. Indicators of compromise if any.
4. Specific vulnerability details for each port with 'protectionMethods'.
5. A step-by-step remediation plan.
6. Confidence level in this assessment (percentage).

Use Google Search to find current exploits or CVEs related to these ports.`

// BuildPrompt composes the research request for ip and its open ports.
// The IP is embedded verbatim.
func BuildPrompt(ports []int, ip string) string {
	return fmt.Sprintf(promptTemplate, ip, joinPorts(ports))
}

func joinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

// ResponseSchema is the JSON shape the model is asked to produce. It mirrors
// SecurityReport without sources, which come from grounding metadata.
func ResponseSchema() *genai.Schema {
	stringList := func() *genai.Schema {
		return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	}

	risks := make([]string, 0, len(severity.AllLevels()))
	for _, l := range severity.AllLevels() {
		risks = append(risks, l.String())
	}

	vulnerability := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"port":              {Type: genai.TypeNumber},
			"service":           {Type: genai.TypeString},
			"risk":              {Type: genai.TypeString, Format: "enum", Enum: risks},
			"description":       {Type: genai.TypeString},
			"protectionMethods": stringList(),
		},
		PropertyOrdering: []string{"port", "service", "risk", "description", "protectionMethods"},
		Required:         []string{"port", "risk"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {Type: genai.TypeNumber},
			"status": {
				Type:   genai.TypeString,
				Format: "enum",
				Enum: []string{
					string(report.StatusSecure),
					string(report.StatusAtRisk),
					string(report.StatusCompromised),
				},
			},
			"confidence":      {Type: genai.TypeNumber},
			"summary":         {Type: genai.TypeString},
			"indicators":      stringList(),
			"vulnerabilities": {Type: genai.TypeArray, Items: vulnerability},
			"recommendations": stringList(),
			"remediationPlan": stringList(),
		},
		PropertyOrdering: []string{
			"score", "status", "confidence", "summary", "indicators",
			"vulnerabilities", "recommendations", "remediationPlan",
		},
		Required: []string{"score", "status", "confidence", "vulnerabilities", "remediationPlan"},
	}
}

// buildConfig enables search grounding and pins the answer to
// ResponseSchema.
func buildConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Tools:            []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		ResponseMIMEType: gemini.MIMETypeJSON,
		ResponseSchema:   ResponseSchema(),
	}
}
