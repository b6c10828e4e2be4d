package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"crm-pipeline/internal/core/config"
	"crm-pipeline/internal/core/database"
	"crm-pipeline/internal/core/logger"
	"crm-pipeline/internal/notify"
	"crm-pipeline/internal/repo"
)

// 到期提醒的一次性任务，配合 cron 每天早上跑一遍：
// 找出今天到期的机会，给负责人发邮件。
func main() {
	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log.Level, cfg.Log.JSON)
	defer cleanup()

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
	})
	if err != nil {
		log.Fatal("db open", zap.Error(err))
	}

	mailer := notify.NewMailer(notify.Options{
		Enabled:  cfg.SMTP.Enabled,
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)

	opps, err := repo.NewOpportunityRepo(db).DueOn(time.Now())
	if err != nil {
		log.Fatal("query due opportunities", zap.Error(err))
	}

	users := repo.NewUserRepo(db)
	sent := 0
	for _, o := range opps {
		owner, err := users.FindByID(o.OwnerID)
		if err != nil {
			log.Warn("load owner failed", zap.String("opportunity", o.ID), zap.Error(err))
			continue
		}
		if owner == nil || owner.Email == "" {
			continue
		}
		body := fmt.Sprintf("Deal %q is expected to close today (%s). Value: %s.",
			o.Title, o.ExpectedCloseDate.Format("2006-01-02"), o.Value.StringFixed(2))
		mailer.Send(owner.Email, "Deal closing today: "+o.Title, body)
		sent++
	}

	// Mailer 的投递是异步的，留一点时间把信发出去
	time.Sleep(2 * time.Second)
	log.Info("reminders dispatched", zap.Int("due", len(opps)), zap.Int("sent", sent))
}
