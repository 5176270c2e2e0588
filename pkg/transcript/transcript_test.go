package transcript

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndRecentUnclassified(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "db", "transcript.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record("wie spät ist es", "Clock", 0.93, true))
	require.NoError(t, s.Record("blubberdiblub", "None", 0.21, false))
	require.NoError(t, s.Record("mach mal dings", "Choose", 0.4, false))

	got, err := s.RecentUnclassified(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, u := range got {
		assert.False(t, u.Classified)
		assert.NotEmpty(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())
	}
}

func TestStore_RecentUnclassifiedHonorsLimit(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "transcript.db"))
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record("unklar", "", 0, false))
	}

	got, err := s.RecentUnclassified(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
