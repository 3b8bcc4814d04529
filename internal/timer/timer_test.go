package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNow(t *testing.T) {
	require.WithinDuration(t, time.Now(), Now(), 2*Resolution)
	time.Sleep(Resolution + 100*time.Millisecond)
	require.WithinDuration(t, time.Now(), Now(), 2*Resolution)
}

func BenchmarkNow(b *testing.B) {
	b.Run("time.Now()", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = time.Now()
		}
	})

	b.Run("timer.Now()", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = Now()
		}
	})
}
