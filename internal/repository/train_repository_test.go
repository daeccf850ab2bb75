package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/railway-reservation/internal/model"
)

func tempStore(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func sampleTrain(id string, seats int) model.Train {
	return model.Train{
		ID:          id,
		Name:        "Coastal Express",
		Source:      "Chennai",
		Destination: "Goa",
		Date:        "2026-11-20",
		Departure:   "06:15",
		Seats:       seats,
		Fare:        640.50,
	}
}

func TestTrainRepoCreateAndReload(t *testing.T) {
	path := tempStore(t, "trains.txt")

	repo, err := NewTrainRepo(path)
	require.NoError(t, err)
	require.NoError(t, repo.Create(sampleTrain("TRAIN001", 100)))
	require.NoError(t, repo.Create(sampleTrain("TRAIN002", 50)))
	assert.ErrorIs(t, repo.Create(sampleTrain("TRAIN001", 10)), ErrTrainExists)

	// A fresh repo over the same file sees the same records.
	reloaded, err := NewTrainRepo(path)
	require.NoError(t, err)
	trains := reloaded.List()
	require.Len(t, trains, 2)
	assert.Equal(t, "TRAIN001", trains[0].ID)
	assert.Equal(t, 100, trains[0].Seats)
}

func TestTrainRepoAdjustSeats(t *testing.T) {
	repo, err := NewTrainRepo(tempStore(t, "trains.txt"))
	require.NoError(t, err)
	require.NoError(t, repo.Create(sampleTrain("TRAIN001", 2)))

	updated, err := repo.AdjustSeats("train001", -1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Seats)

	updated, err = repo.AdjustSeats("TRAIN001", -1)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Seats)

	// Never below zero, and the failed call leaves the count untouched.
	_, err = repo.AdjustSeats("TRAIN001", -1)
	assert.ErrorIs(t, err, ErrInvalidAdjustment)
	got, err := repo.GetByID("TRAIN001")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Seats)

	updated, err = repo.AdjustSeats("TRAIN001", +1)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Seats)

	_, err = repo.AdjustSeats("TRAIN999", -1)
	assert.ErrorIs(t, err, ErrTrainNotFound)
}

func TestTrainRepoSkipsCorruptedLines(t *testing.T) {
	path := tempStore(t, "trains.txt")
	good := sampleTrain("TRAIN001", 40)
	content := "garbage line without enough fields\n" +
		good.CSV() + "\n" +
		"TRAIN002,Exp,A,B,2026-01-01,08:00,notanumber,90.00\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	repo, err := NewTrainRepo(path)
	require.NoError(t, err)
	trains := repo.List()
	require.Len(t, trains, 1)
	assert.Equal(t, "TRAIN001", trains[0].ID)
}

func TestTrainRepoUpdateAndDelete(t *testing.T) {
	path := tempStore(t, "trains.txt")
	repo, err := NewTrainRepo(path)
	require.NoError(t, err)
	require.NoError(t, repo.Create(sampleTrain("TRAIN001", 40)))

	changed := sampleTrain("TRAIN001", 40)
	changed.Fare = 999
	require.NoError(t, repo.Update(changed))
	got, err := repo.GetByID("TRAIN001")
	require.NoError(t, err)
	assert.Equal(t, float64(999), got.Fare)

	assert.ErrorIs(t, repo.Update(sampleTrain("TRAIN404", 1)), ErrTrainNotFound)

	require.NoError(t, repo.Delete("TRAIN001"))
	_, err = repo.GetByID("TRAIN001")
	assert.ErrorIs(t, err, ErrTrainNotFound)
	assert.ErrorIs(t, repo.Delete("TRAIN001"), ErrTrainNotFound)

	// Deletion is persisted too.
	reloaded, err := NewTrainRepo(path)
	require.NoError(t, err)
	assert.Empty(t, reloaded.List())
}
