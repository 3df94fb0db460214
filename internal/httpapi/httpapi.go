// Package httpapi serves the repair engine over HTTP via Gin: POST /run
// executes a source file once, POST /repair drives the full Iteration
// Controller, GET /repair/stream replays the same run's iteration log over
// a websocket, and GET /metrics exposes the request counters. JWT auth is
// optional: with no signing key configured the engine runs auth-free.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/codehealer/autofix-engine/internal/autofix"
	"github.com/codehealer/autofix-engine/internal/controller"
	"github.com/codehealer/autofix-engine/internal/errtax"
)

// RunRequest is the POST /run body.
type RunRequest struct {
	Code string `json:"code" binding:"required"`
}

// RunResponse is the POST /run body.
type RunResponse struct {
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr"`
	ErrorType string `json:"error_type"`
	FullError string `json:"full_error"`
}

// RepairRequest is the POST /repair body.
type RepairRequest struct {
	Code          string `json:"code" binding:"required"`
	Prompt        string `json:"prompt" binding:"required"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

// RepairResponse is the POST /repair body, with the report embedded
// directly rather than requiring a follow-up read from a file path.
type RepairResponse struct {
	FinalCode       string                `json:"final_code"`
	FinalStatus     string                `json:"final_status"`
	TotalIterations int                   `json:"total_iterations"`
	Changes         []autofix.ChangeEntry `json:"changes"`
	Report          autofix.Report        `json:"raw_report"`
}

// Server wires an Executor and Controller behind Gin routes.
type Server struct {
	router     *gin.Engine
	exec       autofix.Executor
	controller *controller.Controller
	logger     *logrus.Logger
	timeout    time.Duration
}

// New builds a Server. When jwtKey is non-empty, every route except
// GET /metrics requires a valid bearer token.
func New(exec autofix.Executor, c *controller.Controller, jwtKey string, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		router:     gin.New(),
		exec:       exec,
		controller: c,
		logger:     logger,
		timeout:    10 * time.Second,
	}

	s.router.Use(gin.Recovery(), requestLogger(logger), prometheusMiddleware())

	group := s.router.Group("/")
	if jwtKey != "" {
		group.Use(RequireAuth(jwtKey))
	}
	group.POST("/run", s.handleRun)
	group.POST("/repair", s.handleRepair)
	group.GET("/repair/stream", s.handleRepairStream)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Router exposes the underlying gin.Engine for http.ListenAndServe.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty code provided"})
		return
	}

	stdout, stderr, err := s.exec.Run(c.Request.Context(), autofix.Source(req.Code), "go", s.timeout)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sandbox execution failed: " + err.Error()})
		return
	}

	kind, fullErr := errtax.ParseError(autofix.DiagnosticText(stderr), autofix.Source(req.Code))
	c.JSON(http.StatusOK, RunResponse{
		Stdout:    stdout,
		Stderr:    stderr,
		ErrorType: string(kind),
		FullError: fullErr,
	})
}

func (s *Server) handleRepair(c *gin.Context) {
	var req RepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and prompt are required"})
		return
	}

	maxIterations := req.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 5
	}

	result := s.controller.Run(c.Request.Context(), autofix.Source(req.Code), req.Prompt, maxIterations)

	c.JSON(http.StatusOK, RepairResponse{
		FinalCode:       string(result.FinalSource),
		FinalStatus:     result.FinalStatus,
		TotalIterations: result.Report.TotalIterations,
		Changes:         result.Report.Changes,
		Report:          result.Report,
	})
}

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleRepairStream runs the repair loop to completion, then replays each
// recorded IterationRecord over the socket in order, followed by a final
// message carrying the overall result. The Controller itself has no
// mid-run progress hook, so this is a replay of the finished Report rather
// than a live tap into the loop.
func (s *Server) handleRepairStream(c *gin.Context) {
	code := c.Query("code")
	prompt := c.Query("prompt")
	if code == "" || prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code and prompt query params are required"})
		return
	}

	conn, err := streamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	result := s.controller.Run(c.Request.Context(), autofix.Source(code), prompt, 5)
	for _, it := range result.Report.Iterations {
		if err := conn.WriteJSON(it); err != nil {
			return
		}
	}
	_ = conn.WriteJSON(gin.H{
		"final_status": result.FinalStatus,
		"final_code":   string(result.FinalSource),
	})
}
