package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		development bool
		level       string
		want        zerolog.Level
	}{
		{true, "", zerolog.DebugLevel},
		{false, "", zerolog.InfoLevel},
		{false, "warn", zerolog.WarnLevel},
		{true, "bogus", zerolog.DebugLevel},
	}
	for _, tt := range tests {
		if got := levelFor(tt.development, tt.level); got != tt.want {
			t.Errorf("levelFor(%v, %q) = %v, want %v", tt.development, tt.level, got, tt.want)
		}
	}
}
