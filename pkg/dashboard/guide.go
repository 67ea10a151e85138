package dashboard

// GuideEntry is one item of the static hardening guide.
type GuideEntry struct {
	Title string `json:"title"`
	Tag   string `json:"tag"`
}

// ProtectionGuide is served by GET /api/v1/protection-guide.
var ProtectionGuide = []GuideEntry{
	{Title: "Enable and Configure Firewall", Tag: "Firewall"},
	{Title: "Close Unnecessary Ports", Tag: "Port Management"},
	{Title: "Keep Systems Updated", Tag: "System Updates"},
	{Title: "Strengthen Authentication", Tag: "Authentication"},
	{Title: "Secure Your Network", Tag: "Network Security"},
	{Title: "Implement Real-time Monitoring", Tag: "Monitoring"},
}

// HistoryResponse is the placeholder served by GET /api/v1/history.
// Reports are not persisted.
type HistoryResponse struct {
	Entries []ScanResult `json:"entries"`
	Message string       `json:"message"`
}

const noHistoryMessage = "No History Found"
