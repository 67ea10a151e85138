package dashboard

import (
	"bytes"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/exploopio/emerald/pkg/compress"
	"github.com/exploopio/emerald/pkg/core"
	"github.com/exploopio/emerald/pkg/metrics"
)

// requestLogger logs one line per request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		log := core.WithField(s.logger, "client_ip", c.ClientIP())
		msg := "[dashboard] %s %s %d %s"
		args := []interface{}{c.Request.Method, c.Request.URL.Path, status, time.Since(start).Round(time.Millisecond)}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error(msg, args...)
		case status >= http.StatusBadRequest:
			log.Warn(msg, args...)
		default:
			log.Debug(msg, args...)
		}
	}
}

// requestMetrics counts requests by route template.
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.CounterInc(metrics.DashboardRequestsTotal.Name,
			"method", c.Request.Method,
			"route", route,
			"status", strconv.Itoa(c.Writer.Status()))
	}
}

// rateLimit throttles scan creation with a shared token bucket.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil {
			c.Next()
			return
		}

		r := s.limiter.Reserve()
		if delay := r.Delay(); delay > 0 {
			r.Cancel()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorResponse{
				Error: "rate limit exceeded",
				Code:  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

// bufferedWriter holds the body until the handler finishes so it can be
// encoded as a whole.
type bufferedWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	return w.buf.WriteString(s)
}

// compressResponse encodes responses with the algorithm negotiated from
// Accept-Encoding.
func compressResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		algo := compress.Negotiate(c.GetHeader("Accept-Encoding"))
		if algo == compress.AlgorithmNone {
			c.Next()
			return
		}

		bw := &bufferedWriter{ResponseWriter: c.Writer}
		c.Writer = bw
		c.Next()
		c.Writer = bw.ResponseWriter

		body := bw.buf.Bytes()
		h := c.Writer.Header()
		h.Add("Vary", "Accept-Encoding")

		if h.Get("Content-Encoding") == "" && compress.ShouldCompress(len(body), h.Get("Content-Type")) {
			if out, err := compress.For(algo).Compress(body); err == nil {
				body = out
				h.Set("Content-Encoding", string(algo))
			}
		}

		h.Set("Content-Length", strconv.Itoa(len(body)))
		c.Writer.WriteHeaderNow()
		if len(body) > 0 {
			_, _ = c.Writer.Write(body)
		}
	}
}
