package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

var day1 = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// run executes kansoctl with args against a fresh flag state.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	storageFlag, dsnFlag = "", ""
	generateDate, generateUser = "", ""
	recalculateDate, recalculateChallenge = "", ""
	rolloverDate = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seed stores a two-task challenge started on day1 and returns its id.
func seed(t *testing.T, dsn string) string {
	t.Helper()
	ctx := context.Background()

	repos, err := repository.OpenRepositories(ctx, repository.StorageSQLite, dsn)
	require.NoError(t, err)
	defer repos.Close()

	c, err := domain.NewChallenge("user-1", domain.ChallengeCustom, "Spring reset", "Small daily habits", 5)
	require.NoError(t, err)
	for i, name := range []string{"Walk", "Read"} {
		task, err := domain.NewTask(c.ID, domain.TaskSpec{Name: name, Description: name + " every day"}, i)
		require.NoError(t, err)
		c.Tasks = append(c.Tasks, task)
	}
	require.NoError(t, c.Start(day1))
	require.NoError(t, repos.Challenges.Create(ctx, c))
	return c.ID
}

func TestKansoctl(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("TEMPLATES_FILE", "")

	dsn := filepath.Join(t.TempDir(), "kanso.db")
	db := []string{"--storage", "sqlite", "--dsn", dsn}

	t.Run("Migrate", func(t *testing.T) {
		out, err := run(t, append([]string{"migrate"}, db...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "sqlite schema is up to date")
	})

	challengeID := seed(t, dsn)

	t.Run("Generate is idempotent", func(t *testing.T) {
		out, err := run(t, append([]string{"generate", "--date", "2026-03-02"}, db...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "2026-03-02: created 2 daily tasks")

		out, err = run(t, append([]string{"generate", "--date", "2026-03-02"}, db...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "2026-03-02: created 0 daily tasks")
	})

	t.Run("Rollover marks yesterday missed", func(t *testing.T) {
		out, err := run(t, append([]string{"rollover", "--date", "2026-03-03"}, db...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "rollover for 2026-03-03 done")

		repos, err := repository.OpenRepositories(context.Background(), repository.StorageSQLite, dsn)
		require.NoError(t, err)
		defer repos.Close()

		yesterday, err := repos.DailyTasks.ListByDate(context.Background(), "", day1)
		require.NoError(t, err)
		require.Len(t, yesterday, 2)
		for _, dt := range yesterday {
			assert.Equal(t, domain.DailyMissed, dt.Status)
		}

		today, err := repos.DailyTasks.ListByDate(context.Background(), "", domain.AddDays(day1, 1))
		require.NoError(t, err)
		assert.Len(t, today, 2)
	})

	t.Run("Recalculate one challenge", func(t *testing.T) {
		out, err := run(t, append([]string{"recalculate", "--date", "2026-03-03", "--challenge", challengeID}, db...)...)
		require.NoError(t, err)
		assert.Contains(t, out, challengeID+": in_progress, progress 0.00")
	})

	t.Run("Recalculate all", func(t *testing.T) {
		out, err := run(t, append([]string{"recalculate", "--date", "2026-03-03"}, db...)...)
		require.NoError(t, err)
		assert.Contains(t, out, "recalculated 1 challenges as of 2026-03-03")
	})

	t.Run("Invalid date", func(t *testing.T) {
		_, err := run(t, append([]string{"generate", "--date", "03/02/2026"}, db...)...)
		assert.ErrorContains(t, err, "invalid date")
	})
}

func TestKansoctl_Templates(t *testing.T) {
	out, err := run(t, "templates")
	require.NoError(t, err)

	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, string(domain.ChallengeSeventyFiveHard))
}

func TestKansoctl_MemoryMigrate(t *testing.T) {
	out, err := run(t, "migrate", "--storage", "memory")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to do")
}
