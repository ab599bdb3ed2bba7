package querycache

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.MaxCacheSize != 100 {
		t.Errorf("MaxCacheSize = %d, want 100", cfg.MaxCacheSize)
	}
	if cfg.StaleTolerance != 5*time.Minute {
		t.Errorf("StaleTolerance = %v, want 5m", cfg.StaleTolerance)
	}
}
