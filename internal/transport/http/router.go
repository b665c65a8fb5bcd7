package pumphttp

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"pumpwatch/internal/engine"
	"pumpwatch/internal/logger"
)

func registerRoutes(router *gin.Engine, cfg ServerConfig) {
	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "pumpwatch"})
	}
	// 根路径同时接受 GET/POST：部分信号源会先探活再推送。
	router.GET("/", health)
	router.POST("/", health)
	router.GET("/healthz", health)

	router.POST("/webhook/alert", alertHandler(cfg))

	api := router.Group("/api")
	api.GET("/monitors", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"monitors": cfg.Service.Monitors(),
			"watchers": cfg.Service.Watchers(),
		})
	})
	if cfg.Trades != nil {
		api.GET("/trades", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
			trades, err := cfg.Trades.ListRecent(limit)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"trades": trades})
		})
	}
	if cfg.Alerts != nil {
		api.GET("/alerts", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
			events, err := cfg.Alerts.Recent(limit)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"alerts": events})
		})
	}
}

// alertHandler 宽松解析报警载荷：currency 字符串，percent 允许数字或
// 带百分号的字符串。缺 currency 的请求按探活处理。
func alertHandler(cfg ServerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "reason": "unreadable body"})
			return
		}

		currency := gjson.GetBytes(body, "currency").String()
		if currency == "" {
			c.JSON(http.StatusOK, gin.H{"status": "ok", "alert_received": false})
			return
		}
		percent := parsePercent(gjson.GetBytes(body, "percent"))

		alert := engine.Alert{Currency: currency, Percent: percent}
		res := cfg.Service.Handle(c.Request.Context(), alert)

		if cfg.Alerts != nil {
			if err := cfg.Alerts.Append(alert, res); err != nil {
				logger.Warnf("报警记录写入失败: %v", err)
			}
		}

		code := http.StatusOK
		if res.Status == engine.StatusError {
			code = http.StatusBadGateway
		}
		c.JSON(code, alertResponse(res))
	}
}

func parsePercent(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return v.Float()
	case gjson.String:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v.String()), "%"))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
