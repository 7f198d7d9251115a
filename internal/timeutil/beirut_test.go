package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlausible(t *testing.T) {
	assert.False(t, Plausible(time.Time{}))
	assert.False(t, Plausible(time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, Plausible(time.Now().Add(48*time.Hour)))

	assert.True(t, Plausible(time.Now()))
	assert.True(t, Plausible(time.Now().Add(-365*24*time.Hour)))
	assert.True(t, Plausible(time.Now().Add(12*time.Hour)))
}

func TestNowInOperationalZone(t *testing.T) {
	assert.Equal(t, Beirut, Now().Location())
}
