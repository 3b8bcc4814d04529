package timer

import (
	"sync"
	"sync/atomic"
	"time"
)

// Resolution is the frequency at which the time is updated. 500ms are precise enough for
// setting I/O deadlines measured in seconds.
const Resolution = 500 * time.Millisecond

var (
	millis = new(atomic.Int64)
	once   sync.Once
)

// Now returns the coarse current time. Calling time.Now() on every socket read is noticeably
// more expensive than loading an atomic, while deadlines don't need better precision.
func Now() time.Time {
	once.Do(start)
	ms := millis.Load()
	return time.Unix(ms/1000, (ms%1000)*1e6)
}

func start() {
	// store the time synchronously, otherwise the first callers might observe zero-time
	// before the goroutine is scheduled.
	millis.Store(time.Now().UnixMilli())

	go func() {
		for {
			time.Sleep(Resolution)
			millis.Store(time.Now().UnixMilli())
		}
	}()
}
