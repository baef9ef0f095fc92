package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"xinyuan_tech/billing-service/internal/conf"
	"xinyuan_tech/billing-service/internal/constants"

	"github.com/go-kratos/kratos/v2/config"
	"github.com/go-kratos/kratos/v2/config/file"
	"github.com/go-redsync/redsync/v4"
	"github.com/robfig/cron/v3"
	_ "go.uber.org/automaxprocs"
)

var (
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	// 初始化配置
	c := config.New(
		config.WithSource(
			file.NewSource(flagconf),
		),
	)
	defer c.Close()

	if err := c.Load(); err != nil {
		panic(err)
	}

	var bc conf.Bootstrap
	if err := c.Scan(&bc); err != nil {
		panic(err)
	}

	// 初始化应用
	app, cleanup, err := wireApp(&bc)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// 创建定时任务调度器（支持秒级调度）
	cronScheduler := cron.New(cron.WithSeconds())

	// webhook 事件日志清理 - 每天凌晨 4 点执行
	_, err = cronScheduler.AddFunc("0 0 4 * * *", func() {
		log.Println("[CRON] Starting webhook event log pruning...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		// 使用分布式锁保证多实例部署时只有一个实例执行清理
		mutex := app.RS.NewMutex(
			"billing:event_prune_lock",
			redsync.WithExpiry(constants.EventPruneLockExpiration),
			redsync.WithTries(constants.EventPruneLockRetries),
		)
		if err := mutex.LockContext(ctx); err != nil {
			log.Printf("[CRON] Skipping pruning: lock busy or already running elsewhere")
			return
		}
		defer func() {
			if _, err := mutex.UnlockContext(ctx); err != nil {
				log.Printf("[CRON] Failed to unlock pruning lock: %v", err)
			}
		}()

		count, err := app.WebhookEvents.PruneExpired(ctx)
		if err != nil {
			log.Printf("[CRON] Error pruning webhook events: %v", err)
		} else {
			log.Printf("[CRON] Pruned %d webhook events", count)
			log.Println("[CRON] Finished webhook event log pruning")
		}
	})
	if err != nil {
		log.Printf("Failed to add pruning job: %v", err)
	}

	// 启动定时任务
	cronScheduler.Start()
	log.Println("========================================")
	log.Println("Cron jobs started successfully")
	log.Println("Scheduled jobs:")
	log.Println("  - Webhook event pruning:  Every day at 04:00")
	log.Println("========================================")

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gracefully...")

	// 停止定时任务
	ctx := cronScheduler.Stop()
	select {
	case <-ctx.Done():
		log.Println("Cron jobs stopped gracefully")
	case <-time.After(5 * time.Second):
		log.Println("Cron jobs forced to stop after timeout")
	}
}
