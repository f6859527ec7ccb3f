package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habit-planner/internal/api"
	"habit-planner/internal/bot"
	"habit-planner/internal/config"
	"habit-planner/internal/model"
	"habit-planner/internal/notify"
	"habit-planner/internal/repository"
	"habit-planner/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	store := repository.NewStore(db)
	categorySvc := service.NewCategoryService(store)
	taskSvc := service.NewTaskService(store)
	reminderSvc := service.NewReminderService(store)

	if cfg.SeedDefaults {
		if err := categorySvc.EnsureDefaults(ctx); err != nil {
			log.Fatalf("seed categories: %v", err)
		}
	}

	var notifiers []service.Notifier
	var telegramBot *bot.Bot
	if cfg.Telegram.Token != "" {
		telegramBot, err = bot.New(cfg, categorySvc, taskSvc, reminderSvc)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		notifiers = append(notifiers, telegramBot)
	}
	if cfg.EmailEnabled() {
		notifiers = append(notifiers, notify.NewEmailNotifier(notify.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, cfg.Report.EmailTo))
	}

	scheduler := service.NewSchedulerService(loc, 30*time.Second)
	if len(notifiers) > 0 {
		sendSummary := func(jobCtx context.Context) error {
			today := model.DateOf(time.Now().In(loc))
			return reminderSvc.SendSummary(jobCtx, today, notifiers...)
		}
		if cfg.Report.Time != "" {
			if _, err := scheduler.ScheduleDaily(cfg.Report.Time, "daily-summary", sendSummary); err != nil {
				log.Fatalf("schedule daily summary: %v", err)
			}
		}
		if cfg.ReportInterval > 0 {
			if _, err := scheduler.ScheduleInterval(cfg.ReportInterval, "interval-summary", sendSummary); err != nil {
				log.Fatalf("schedule interval summary: %v", err)
			}
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Printf("[info] scheduler started with %d job(s)", scheduler.Entries())
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.NewRouter(taskSvc, categorySvc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[info] http listening on %s", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server: %v", err)
			stop()
		}
	}()

	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("bot stopped with error: %v", err)
			}
		}()
	}

	log.Println("Habit planner started.")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	log.Println("Shutdown complete.")
}
