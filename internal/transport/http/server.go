// Package pumphttp 提供报警入口与状态查询的 HTTP 服务。
package pumphttp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pumpwatch/internal/engine"
	"pumpwatch/internal/logger"
	"pumpwatch/internal/store/alertlog"
	"pumpwatch/internal/store/gormstore"
)

// Server 对外暴露 webhook 与只读查询接口。
type Server struct {
	addr   string
	router *gin.Engine
}

// ServerConfig 描述 HTTP 服务依赖。Trades 与 Alerts 可为空（禁用持久化时）。
type ServerConfig struct {
	Addr    string
	Service *engine.Service
	Trades  *gormstore.Store
	Alerts  *alertlog.Store
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("http server requires alert service")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	registerRoutes(router, cfg)

	return &Server{addr: cfg.Addr, router: router}, nil
}

// requestLogger 记录每次接口调用，便于追踪信号来源。
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.Request.URL.Path
		client := c.ClientIP()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			method, path, c.Writer.Status(), client, time.Since(start))
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	return s.addr
}

// Handler 暴露底层 handler，测试用。
func (s *Server) Handler() http.Handler { return s.router }

// Start 启动 HTTP 服务，直到 ctx 取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
