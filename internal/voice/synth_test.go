package voice

import (
	"strings"
	"testing"
)

func TestEstimateDuration(t *testing.T) {
	if got := EstimateDuration("aaj hi mangaiye"); got != 5 {
		t.Fatalf("short text should floor at 5 seconds, got %d", got)
	}

	long := strings.Repeat("word ", 300)
	if got := EstimateDuration(long); got != 120 {
		t.Fatalf("300 words at 150 wpm should be 120 seconds, got %d", got)
	}
}
