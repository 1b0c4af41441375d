package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"priorityline/internal/domain"
)

func TestLevelUsesRoundedScore(t *testing.T) {
	s := New(DefaultRules())
	assert.Equal(t, 80.0, round2(79.996))
	assert.Equal(t, domain.LevelCritical, s.Level(round2(79.996)))
	assert.Equal(t, domain.LevelHigh, s.Level(79.996))
}
