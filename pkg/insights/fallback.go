package insights

import (
	"github.com/exploopio/emerald/pkg/report"
	"github.com/exploopio/emerald/pkg/shared/severity"
)

const (
	fallbackScore      = 60
	fallbackConfidence = 75
	fallbackSummary    = "Found potential vulnerabilities that require immediate attention."
	fallbackDesc       = "Protocol vulnerabilities detected."
)

// Fallback returns the static report used when the model path fails.
// It depends only on ports; ip is accepted for symmetry and ignored.
func Fallback(ports []int, ip string) *report.SecurityReport {
	_ = ip

	vulns := make([]report.PortVulnerability, 0, len(ports))
	for _, p := range ports {
		vulns = append(vulns, report.PortVulnerability{
			Port:              p,
			Service:           fallbackService(p),
			Risk:              fallbackRisk(p),
			Description:       fallbackDesc,
			ProtectionMethods: []string{"Disable if not used", "Implement IP filtering"},
		})
	}

	return &report.SecurityReport{
		Score:           fallbackScore,
		Status:          report.StatusAtRisk,
		Confidence:      fallbackConfidence,
		Summary:         fallbackSummary,
		Indicators:      []string{"Unencrypted services detected", "Default ports exposed"},
		Vulnerabilities: vulns,
		Recommendations: []string{"Close port 23 immediately", "Enable 2FA for SSH"},
		RemediationPlan: []string{"Disconnect from public network", "Review access logs", "Change all passwords"},
		Sources:         []report.Source{},
	}
}

func fallbackService(port int) string {
	switch port {
	case 22:
		return "SSH"
	case 23:
		return "Telnet"
	default:
		return "Unknown"
	}
}

// fallbackRisk rates telnet critical and everything else high, SSH included.
func fallbackRisk(port int) severity.Level {
	if port == 23 {
		return severity.Critical
	}
	return severity.High
}
