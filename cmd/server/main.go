package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/anonic-next/internal/app"
	"github.com/anonic-next/internal/config"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset     = "\033[0m"
	ansiBold      = "\033[1m"
	ansiDim       = "\033[2m"
	ansiGreen     = "\033[32m"
	ansiBlue      = "\033[34m"
	ansiCyan      = "\033[36m"
	ansiBrightMag = "\033[95m"
)

func main() {
	printStartupBanner()

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakToken(cfg.Security.AdminToken) {
			stdLog.Fatalf("管理令牌过弱或未配置，请在生产环境中配置强随机令牌")
		}
	} else if isWeakToken(cfg.Security.AdminToken) {
		stdLog.Printf("警告: 管理令牌过弱或未配置，管理接口将拒绝所有请求")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner() {
	fmt.Println(ansiBrightMag + "╔══════════════════════════════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiBrightMag + "║                      🚀 Anonic-Next Relay 启动中                      ║" + ansiReset)
	fmt.Println(ansiBrightMag + "╚══════════════════════════════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiCyan + " █████╗ ███╗   ██╗ ██████╗ ███╗   ██╗██╗ ██████╗" + ansiReset)
	fmt.Println(ansiCyan + "██╔══██╗████╗  ██║██╔═══██╗████╗  ██║██║██╔════╝" + ansiReset)
	fmt.Println(ansiCyan + "███████║██╔██╗ ██║██║   ██║██╔██╗ ██║██║██║     " + ansiReset)
	fmt.Println(ansiCyan + "██╔══██║██║╚██╗██║██║   ██║██║╚██╗██║██║██║     " + ansiReset)
	fmt.Println(ansiCyan + "██║  ██║██║ ╚████║╚██████╔╝██║ ╚████║██║╚██████╗" + ansiReset)
	fmt.Println(ansiCyan + "╚═╝  ╚═╝╚═╝  ╚═══╝ ╚═════╝ ╚═╝  ╚═══╝╚═╝ ╚═════╝" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "Anonymous Message Relay" + ansiReset)
	fmt.Println(ansiBlue + "• 匿名身份注册与轮换 / 一次性邀请链接 / 会话路由与举报" + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}

func isWeakToken(token string) bool {
	if len(token) < 32 {
		return true
	}
	normalized := strings.ToLower(token)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
