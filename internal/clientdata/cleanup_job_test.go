package clientdata

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	job := NewCleanupJob(repo, zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())

	require.NoError(t, repo.Store(TablePolicyRates, "old", 1, -time.Hour))
	require.NoError(t, repo.Store(TablePolicyRates, "new", 1, time.Hour))

	require.NoError(t, job.Run())

	var rates int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM policy_rates").Scan(&rates))
	assert.Equal(t, 1, rates)
}
