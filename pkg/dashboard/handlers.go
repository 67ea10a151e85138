package dashboard

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/exploopio/emerald/pkg/compress"
	"github.com/exploopio/emerald/pkg/config"
	"github.com/exploopio/emerald/pkg/core"
	"github.com/exploopio/emerald/pkg/report"
)

const maxScanBody = 4 << 10

// ScanRequest is the body of POST /api/v1/scans. Both fields are optional.
type ScanRequest struct {
	IP   string `json:"ip"`
	Mode string `json:"mode"`
}

// ScanResult is returned by POST /api/v1/scans.
type ScanResult struct {
	ID          string                 `json:"id"`
	IP          string                 `json:"ip"`
	Mode        string                 `json:"mode"`
	Ports       []int                  `json:"ports"`
	StartedAt   time.Time              `json:"startedAt"`
	CompletedAt time.Time              `json:"completedAt"`
	Report      *report.SecurityReport `json:"report"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: msg, Code: "invalid_request"})
}

// createScan runs one report acquisition. The report path never fails, so
// the only error responses are for malformed requests.
func (s *Server) createScan(c *gin.Context) {
	var req ScanRequest

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxScanBody+1))
	if err != nil {
		badRequest(c, "cannot read request body")
		return
	}
	if len(body) > maxScanBody {
		badRequest(c, "request body too large")
		return
	}
	if body, err = decodeBody(c.GetHeader("Content-Encoding"), body); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			badRequest(c, "invalid JSON body")
			return
		}
	}

	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	if mode == "" {
		mode = s.mode
	}
	if !validMode(mode) {
		badRequest(c, "mode must be one of: "+strings.Join(config.Modes, ", "))
		return
	}

	ctx := c.Request.Context()
	ip := strings.TrimSpace(req.IP)
	if ip == "" {
		ip = s.resolver.Detect(ctx)
	}

	result := ScanResult{
		ID:        uuid.NewString(),
		IP:        ip,
		Mode:      mode,
		Ports:     append([]int(nil), s.ports...),
		StartedAt: time.Now().UTC(),
	}

	log := core.WithFields(s.logger, map[string]interface{}{"scan_id": result.ID, "ip": ip})
	log.Info("[dashboard] %s scan started", mode)

	result.Report = s.insights.GetSecurityInsights(ctx, result.Ports, ip)
	result.CompletedAt = time.Now().UTC()

	log.Info("[dashboard] scan finished: score=%d status=%s", result.Report.Score, result.Report.Status)

	c.JSON(http.StatusOK, result)
}

// decodeBody undoes a gzip or zstd Content-Encoding on a request body.
func decodeBody(encoding string, body []byte) ([]byte, error) {
	algo, err := compress.ParseContentEncoding(encoding)
	if err != nil {
		return nil, err
	}
	if algo == compress.AlgorithmNone {
		return body, nil
	}
	out, err := compress.For(algo).Decompress(body)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s request body", algo)
	}
	if len(out) > maxScanBody {
		return nil, fmt.Errorf("request body too large")
	}
	return out, nil
}

func validMode(mode string) bool {
	for _, m := range config.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

func (s *Server) getTarget(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ip": s.resolver.Detect(c.Request.Context())})
}

func (s *Server) getProtectionGuide(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"entries": ProtectionGuide})
}

func (s *Server) getHistory(c *gin.Context) {
	c.JSON(http.StatusOK, HistoryResponse{Entries: []ScanResult{}, Message: noHistoryMessage})
}
