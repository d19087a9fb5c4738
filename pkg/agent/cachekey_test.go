package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKeyDeterministic(t *testing.T) {
	cfg := TaskConfig{TaskID: "market-research", Version: "1.0.0"}
	ectx := ExecutionContext{AnalysisDepth: DepthStandard}
	input := map[string]string{"title": "X", "description": "Y"}

	a, err := CacheKey(cfg, input, ectx)
	require.NoError(t, err)
	b, err := CacheKey(cfg, input, ectx)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "market-research:"))
}

func TestCacheKeyVariesWithInputs(t *testing.T) {
	cfg := TaskConfig{TaskID: "market-research", Version: "1.0.0"}
	base := ExecutionContext{AnalysisDepth: DepthStandard}
	input := map[string]string{"title": "X"}

	baseline, err := CacheKey(cfg, input, base)
	require.NoError(t, err)

	otherInput, _ := CacheKey(cfg, map[string]string{"title": "Z"}, base)
	assert.NotEqual(t, baseline, otherInput)

	deeper := base
	deeper.AnalysisDepth = DepthComprehensive
	otherDepth, _ := CacheKey(cfg, input, deeper)
	assert.NotEqual(t, baseline, otherDepth)

	profiled := base
	profiled.UserProfile = map[string]string{"industry": "fintech"}
	otherProfile, _ := CacheKey(cfg, input, profiled)
	assert.NotEqual(t, baseline, otherProfile)

	v2 := cfg
	v2.Version = "2.0.0"
	otherVersion, _ := CacheKey(v2, input, base)
	assert.NotEqual(t, baseline, otherVersion)
}

// Long inputs sharing a prefix must not collide; the key is a digest of the
// whole canonical input, not a truncation of it.
func TestCacheKeyNoPrefixCollisions(t *testing.T) {
	cfg := TaskConfig{TaskID: "market-research", Version: "1.0.0"}
	ectx := ExecutionContext{AnalysisDepth: DepthStandard}

	prefix := strings.Repeat("shared prefix ", 100)
	a, err := CacheKey(cfg, map[string]string{"description": prefix + "tail one"}, ectx)
	require.NoError(t, err)
	b, err := CacheKey(cfg, map[string]string{"description": prefix + "tail two"}, ectx)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, len(a), len(b), "keys are fixed length regardless of input size")
}
