package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/config"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/templates"
)

// app holds the services one command run needs.
type app struct {
	cfg       *config.Config
	repos     *repository.Repositories
	clock     services.Clock
	templates *templates.Registry
	generator *services.TaskGenerator
	progress  *services.ProgressService
	daily     *services.DailyTaskService
}

// discardQueue drops recalculation requests; commands recalculate explicitly.
type discardQueue struct{}

func (discardQueue) Enqueue(string) {}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadStorage()
	if err != nil {
		return nil, err
	}
	if storageFlag != "" {
		cfg.Storage = strings.ToLower(storageFlag)
	}
	dsn := cfg.StorageDSN()
	if dsnFlag != "" {
		dsn = dsnFlag
	}

	registry, err := templates.LoadFile(cfg.TemplatesFile)
	if err != nil {
		return nil, err
	}

	repos, err := repository.OpenRepositories(ctx, cfg.Storage, dsn)
	if err != nil {
		return nil, err
	}

	clock := services.SystemClock(cfg.Timezone)
	retry := services.DefaultRetryPolicy(cfg.RetryMaxAttempts)

	return &app{
		cfg:       cfg,
		repos:     repos,
		clock:     clock,
		templates: registry,
		generator: services.NewTaskGenerator(repos.Challenges, repos.Tasks, repos.DailyTasks, retry, clock),
		progress:  services.NewProgressService(repos.Challenges, repos.DailyTasks, retry, clock),
		daily:     services.NewDailyTaskService(repos.DailyTasks, repos.Tasks, repos.Challenges, discardQueue{}, clock),
	}, nil
}

func (a *app) Close() error {
	return a.repos.Close()
}

// parseDay reads a YYYY-MM-DD flag value; empty means today.
func (a *app) parseDay(value string) (time.Time, error) {
	if value == "" {
		return a.clock.Today(), nil
	}
	day, err := domain.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value, err)
	}
	return day, nil
}
