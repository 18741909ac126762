package patients

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, dir, id, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "demo_1", `{
		"patient_id": "demo_1",
		"age": 54,
		"sex": "female",
		"conditions": ["type 2 diabetes"],
		"medications": ["metformin"],
		"labs": {"hba1c": 7.9},
		"notes": "stable"
	}`)
	store := NewStore(dir)

	t.Run("success", func(t *testing.T) {
		p, err := store.Load("demo_1")
		require.NoError(t, err)
		assert.Equal(t, "demo_1", p.PatientID)
		assert.Equal(t, 54, p.Age)
		assert.Equal(t, "female", p.Sex)
		assert.Equal(t, []string{"type 2 diabetes"}, p.Conditions)
		assert.Equal(t, []string{"metformin"}, p.Medications)
		assert.InDelta(t, 7.9, p.Labs["hba1c"], 1e-9)
	})

	t.Run("missing patient", func(t *testing.T) {
		_, err := store.Load("nope")
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("path traversal rejected", func(t *testing.T) {
		_, err := store.Load("../demo_1")
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("id inferred from filename", func(t *testing.T) {
		writeProfile(t, dir, "demo_2", `{"age": 30, "sex": "male"}`)
		p, err := store.Load("demo_2")
		require.NoError(t, err)
		assert.Equal(t, "demo_2", p.PatientID)
	})

	t.Run("invalid profile rejected", func(t *testing.T) {
		writeProfile(t, dir, "bad", `{"patient_id": "bad", "age": -1}`)
		_, err := store.Load("bad")
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	t.Run("sorted ids", func(t *testing.T) {
		dir := t.TempDir()
		writeProfile(t, dir, "b", `{"age": 1}`)
		writeProfile(t, dir, "a", `{"age": 1}`)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

		ids, err := NewStore(dir).List()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		ids, err := NewStore(filepath.Join(t.TempDir(), "absent")).List()
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}
