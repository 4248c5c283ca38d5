package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/comitanigiacomo/kanso-challenge-engine/docs"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/notify"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/config"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/templates"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/workers"
)

const generationLockTTL = 2 * time.Minute

// @title           Kanso Challenge Engine API
// @version         1.0
// @description     Habit challenges with daily task generation and progress tracking.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	registry, err := templates.LoadFile(cfg.TemplatesFile)
	if err != nil {
		log.Fatalf("Critical: Failed to load challenge templates: %v", err)
	}

	log.Printf("Opening %s storage...", cfg.Storage)
	repos, err := repository.OpenRepositories(ctx, cfg.Storage, cfg.StorageDSN())
	if err != nil {
		log.Fatalf("Critical: Failed to open storage: %v", err)
	}
	defer repos.Close()

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = cache.NewRedisClient(ctx, cache.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Printf("[CACHE] Redis unavailable, continuing without cache: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
			log.Println("Redis connected successfully.")
		}
	}

	clock := services.SystemClock(cfg.Timezone)
	retry := services.DefaultRetryPolicy(cfg.RetryMaxAttempts)

	challengeRepo := repos.Challenges
	var reminders domain.ReminderScheduler = cache.NewMemoryReminderQueue()
	if rdb != nil {
		challengeRepo = repository.NewCachedChallengeRepository(repos.Challenges, rdb)
		reminders = cache.NewRedisReminderQueue(rdb)
	}

	generator := services.NewTaskGenerator(challengeRepo, repos.Tasks, repos.DailyTasks, retry, clock).
		WithReminders(reminders, repos.Users)
	if rdb != nil {
		generator.WithLock(cache.NewRedisLock(rdb, generationLockTTL))
	}

	progressService := services.NewProgressService(challengeRepo, repos.DailyTasks, retry, clock)
	progressWorker := workers.NewProgressWorker(progressService, workers.DefaultQueueSize)

	challengeService := services.NewChallengeService(challengeRepo, repos.Tasks, registry, generator, clock)
	dailyTaskService := services.NewDailyTaskService(repos.DailyTasks, repos.Tasks, challengeRepo, progressWorker, clock)
	photoService := services.NewPhotoService(repos.Photos, challengeRepo, repos.DailyTasks, clock)
	authService := services.NewAuthService(repos.Users)
	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, repos.Users)

	scheduler := workers.NewScheduler(generator, dailyTaskService, progressService, clock, cfg.SchedulerInterval)
	dispatcher := workers.NewReminderDispatcher(
		reminders,
		notify.NewLogNotifier(log.New(os.Stdout, "", log.LstdFlags)),
		repos.DailyTasks,
		cfg.ReminderInterval,
	)

	progressWorker.Start(ctx)
	scheduler.Start(ctx)
	dispatcher.Start(ctx)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:      adapterHTTP.NewAuthHandler(authService, tokenService),
		TemplateHandler:  adapterHTTP.NewTemplateHandler(challengeService),
		ChallengeHandler: adapterHTTP.NewChallengeHandler(challengeService),
		DailyTaskHandler: adapterHTTP.NewDailyTaskHandler(dailyTaskService, generator, clock),
		ProgressHandler:  adapterHTTP.NewProgressHandler(progressService),
		PhotoHandler:     adapterHTTP.NewPhotoHandler(photoService),
		SyncHandler:      adapterHTTP.NewSyncHandler(challengeService, dailyTaskService),
		TokenService:     tokenService,
		DB:               repos.DB,
		Redis:            rdb,
		RateLimit:        cfg.RateLimit,
		StartTime:        startTime,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Kanso Challenge Engine running on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
