package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"aioseo_meta_workflow/runlog"
	"aioseo_meta_workflow/workflow"
)

const (
	DefaultRunTimeout = 60 * time.Second
	serviceName       = "aioseo-meta-workflow"
)

// Runner is what the webhook drives. *workflow.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, req workflow.Request) (workflow.RunResult, error)
	Health() workflow.Health
}

// HistoryReader serves /runs. *runlog.History implements it.
type HistoryReader interface {
	Recent(ctx context.Context, postID int, n int) ([]runlog.Record, error)
	LastRun(ctx context.Context) (time.Time, bool, error)
}

type Config struct {
	RunTimeout  time.Duration
	CORSOrigins []string
}

type Server struct {
	runner  Runner
	history HistoryReader
	logger  *zap.Logger
	cfg     Config
}

// New builds the webhook server. history may be nil, which disables /runs.
func New(runner Runner, history HistoryReader, logger *zap.Logger, cfg Config) (*Server, error) {
	if runner == nil {
		return nil, errors.New("workflow runner required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	return &Server{runner: runner, history: history, logger: logger, cfg: cfg}, nil
}

func (s *Server) Routes() http.Handler {
	router := newEngine(s.logger)
	if len(s.cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		}))
	}

	router.POST("/webhook", s.handleWebhook)
	router.GET("/health", s.handleHealth)
	router.GET("/runs/:post_id", s.handleRuns)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}

func newEngine(logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), requestLogger(logger))
	return router
}

// --- Handlers ---

type webhookReq struct {
	PostID      int    `json:"post_id" binding:"required,gte=1"`
	SiteURL     string `json:"site_url"`
	TriggeredBy string `json:"triggered_by"`
}

type errorResp struct {
	Detail string              `json:"detail"`
	Stage  workflow.Stage      `json:"stage,omitempty"`
	Code   workflow.ErrorCode  `json:"code,omitempty"`
	Steps  *workflow.StepTrace `json:"steps,omitempty"`
}

type healthResp struct {
	Status  string     `json:"status"`
	Context string     `json:"context"`
	OpenAI  bool       `json:"openai"`
	Agents  []string   `json:"agents"`
	LastRun *time.Time `json:"last_run,omitempty"`
}

type runsResp struct {
	PostID int             `json:"post_id"`
	Runs   []runlog.Record `json:"runs"`
}

func (s *Server) handleWebhook(c *gin.Context) {
	var req webhookReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorResp{Detail: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RunTimeout)
	defer cancel()
	res, err := s.runner.Run(ctx, workflow.Request{
		PostID:      req.PostID,
		SiteURL:     req.SiteURL,
		TriggeredBy: req.TriggeredBy,
	})
	if err != nil {
		s.writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) writeRunError(c *gin.Context, err error) {
	var runErr *workflow.RunError
	switch {
	case errors.As(err, &runErr):
		c.JSON(http.StatusBadGateway, errorResp{
			Detail: runErr.Detail(),
			Stage:  runErr.Stage,
			Code:   runErr.Code,
			Steps:  &runErr.Steps,
		})
	case errors.Is(err, workflow.ErrInvalidRequest):
		c.JSON(http.StatusUnprocessableEntity, errorResp{Detail: err.Error()})
	default:
		s.logger.Error("webhook run failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResp{Detail: err.Error()})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	h := s.runner.Health()
	resp := healthResp{Status: "ok", Context: h.Context, OpenAI: h.LLMConfigured, Agents: h.Agents}
	if s.history != nil {
		// best effort; Redis being down does not fail the health check
		if at, ok, err := s.history.LastRun(c.Request.Context()); err == nil && ok {
			resp.LastRun = &at
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRuns(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotFound, errorResp{Detail: "run history disabled"})
		return
	}
	postID, err := strconv.Atoi(c.Param("post_id"))
	if err != nil || postID < 1 {
		c.JSON(http.StatusUnprocessableEntity, errorResp{Detail: "post_id must be a positive integer"})
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	runs, err := s.history.Recent(c.Request.Context(), postID, limit)
	if err != nil {
		s.logger.Warn("run history read failed", zap.Int("post", postID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, errorResp{Detail: "run history unavailable"})
		return
	}
	c.JSON(http.StatusOK, runsResp{PostID: postID, Runs: runs})
}

// --- Helpers ---

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		switch {
		case status >= 500:
			logger.Error("HTTP request", fields...)
		case status >= 400:
			logger.Warn("HTTP request", fields...)
		default:
			logger.Info("HTTP request", fields...)
		}
	}
}
