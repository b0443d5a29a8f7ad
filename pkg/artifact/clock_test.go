package artifact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClock_DefaultZone(t *testing.T) {
	c, err := NewClock("")
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	assert.Equal(t, "Asia/Taipei", c.Zone())
	assert.Equal(t, "2026-01-02T11:04:05+08:00", c.ISO())
	assert.Equal(t, "20260102-110405", c.FileStamp())
}

func TestClock_UTC(t *testing.T) {
	c, err := NewClock("UTC")
	require.NoError(t, err)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "2026-01-02T03:04:05Z", c.Format(at))
}

func TestClock_UnknownZone(t *testing.T) {
	_, err := NewClock("Mars/Olympus")
	assert.Error(t, err)
}
