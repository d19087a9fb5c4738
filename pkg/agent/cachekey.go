package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// cacheKeyEnvelope fixes the field order so the serialized form is canonical
// for a given execution.
type cacheKeyEnvelope struct {
	TaskID      string            `json:"taskId"`
	Version     string            `json:"version"`
	Input       json.RawMessage   `json:"input"`
	Depth       string            `json:"depth"`
	UserProfile map[string]string `json:"userProfile,omitempty"`
}

// CacheKey derives a deterministic key for one (task, input, context)
// combination. The canonical envelope is hashed to a fixed-length digest so
// structurally different inputs can never collide by sharing a prefix.
func CacheKey(cfg TaskConfig, input any, ectx ExecutionContext) (string, error) {
	canonicalInput, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize input: %w", err)
	}

	envelope := cacheKeyEnvelope{
		TaskID:      cfg.TaskID,
		Version:     cfg.Version,
		Input:       canonicalInput,
		Depth:       ectx.AnalysisDepth,
		UserProfile: ectx.UserProfile,
	}
	encoded, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key envelope: %w", err)
	}

	sum := sha256.Sum256(encoded)
	return fmt.Sprintf("%s:%s", cfg.TaskID, hex.EncodeToString(sum[:])), nil
}
