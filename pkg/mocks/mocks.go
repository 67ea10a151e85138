// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"google.golang.org/genai"

	"github.com/exploopio/emerald/pkg/report"
)

// =============================================================================
// Mock Generator
// =============================================================================

// MockGenerator is a mock implementation of insights.Generator for testing.
type MockGenerator struct {
	// GenerateContentFn is called when GenerateContent is invoked
	GenerateContentFn func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

	mu    sync.Mutex
	Calls []GenerateContentCall
}

type GenerateContentCall struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

func (m *MockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, GenerateContentCall{Model: model, Contents: contents, Config: config})
	m.mu.Unlock()

	if m.GenerateContentFn != nil {
		return m.GenerateContentFn(ctx, model, contents, config)
	}
	return &genai.GenerateContentResponse{}, nil
}

// CallCount returns the number of GenerateContent calls.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// TextResponse builds a single-candidate response carrying text and the
// given grounding chunks.
func TextResponse(text string, chunks ...*genai.GroundingChunk) *genai.GenerateContentResponse {
	cand := &genai.Candidate{
		Content:      &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}},
		FinishReason: genai.FinishReasonStop,
	}
	if len(chunks) > 0 {
		cand.GroundingMetadata = &genai.GroundingMetadata{GroundingChunks: chunks}
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{cand}}
}

// WebSource builds a web grounding chunk.
func WebSource(title, uri string) *genai.GroundingChunk {
	return &genai.GroundingChunk{Web: &genai.GroundingChunkWeb{Title: title, URI: uri}}
}

// =============================================================================
// Mock Insight Source
// =============================================================================

// MockInsightSource is a mock implementation of dashboard.InsightSource.
type MockInsightSource struct {
	// GetSecurityInsightsFn is called when GetSecurityInsights is invoked
	GetSecurityInsightsFn func(ctx context.Context, ports []int, ip string) *report.SecurityReport

	mu    sync.Mutex
	Calls []InsightCall
}

type InsightCall struct {
	Ports []int
	IP    string
}

func (m *MockInsightSource) GetSecurityInsights(ctx context.Context, ports []int, ip string) *report.SecurityReport {
	m.mu.Lock()
	m.Calls = append(m.Calls, InsightCall{Ports: ports, IP: ip})
	m.mu.Unlock()

	if m.GetSecurityInsightsFn != nil {
		return m.GetSecurityInsightsFn(ctx, ports, ip)
	}
	return &report.SecurityReport{
		Score:           100,
		Status:          report.StatusSecure,
		Confidence:      100,
		Indicators:      []string{},
		Vulnerabilities: []report.PortVulnerability{},
		Recommendations: []string{},
		RemediationPlan: []string{},
		Sources:         []report.Source{},
	}
}

// CallCount returns the number of GetSecurityInsights calls.
func (m *MockInsightSource) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// =============================================================================
// Mock Resolver
// =============================================================================

// MockResolver is a mock implementation of dashboard.TargetResolver.
type MockResolver struct {
	// DetectFn is called when Detect is invoked
	DetectFn func(ctx context.Context) string

	// IP is returned when DetectFn is nil
	IP string
}

func (m *MockResolver) Detect(ctx context.Context) string {
	if m.DetectFn != nil {
		return m.DetectFn(ctx)
	}
	return m.IP
}
