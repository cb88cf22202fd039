package runs

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string) *Record {
	return &Record{
		RunID:     id,
		CreatedAt: time.Now().UTC(),
		Bronze:    []byte("date,partner,amount\n"),
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	s := NewStore(10)

	require.NoError(t, s.Save(record("run-1")))

	got, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.RunID)

	// The stored record is decoupled from what callers hold.
	got.RunID = "mutated"
	again, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", again.RunID)
}

func TestStore_SaveRequiresID(t *testing.T) {
	s := NewStore(10)
	assert.Error(t, s.Save(&Record{}))
}

func TestStore_GetUnknown(t *testing.T) {
	s := NewStore(10)
	_, err := s.Get("nope")
	assert.Error(t, err)
}

func TestStore_EvictsOldestWhenFull(t *testing.T) {
	s := NewStore(2)

	require.NoError(t, s.Save(record("run-1")))
	require.NoError(t, s.Save(record("run-2")))
	require.NoError(t, s.Save(record("run-3")))

	_, err := s.Get("run-1")
	assert.Error(t, err, "oldest run should have been evicted")

	_, err = s.Get("run-2")
	assert.NoError(t, err)
	_, err = s.Get("run-3")
	assert.NoError(t, err)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := NewStore(10)
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Save(record(fmt.Sprintf("run-%d", i))))
	}

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "run-3", list[0].RunID)
	assert.Equal(t, "run-1", list[2].RunID)
}

func TestRecord_Artifact(t *testing.T) {
	rec := &Record{Bronze: []byte("b"), Silver: []byte("s"), Gold: []byte("g")}

	for layer, want := range map[string]string{"bronze": "b", "silver": "s", "gold": "g"} {
		data, ok := rec.Artifact(layer)
		require.True(t, ok, layer)
		assert.Equal(t, want, string(data))
	}

	_, ok := rec.Artifact("platinum")
	assert.False(t, ok)
}
