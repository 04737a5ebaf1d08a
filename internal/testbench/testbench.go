package testbench

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i5heu/GoCheckedQueue/internal/queue"
)

// Config is only about concurrency: how many producers, how many consumers.
type Config struct {
	NumProducers int `yaml:"producers" json:"producers"`
	NumConsumers int `yaml:"consumers" json:"consumers"`
}

// RunTimedTest spawns producers and consumers that run for the specified
// duration, measuring how many messages are actually enqueued/dequeued
// in that window. Once the context expires, producers stop and consumers
// drain any remaining messages in the queue.
//
// After the run it checks that nothing was consumed that was never produced
// and, when q implements queue.Validator, that the queue's structure is
// still intact. Either failure is returned as an error alongside the counts.
func RunTimedTest[T any, Q queue.QueueValidationInterface[T]](
	q Q,
	cfg Config,
	testDuration time.Duration,
	valueGenerator func(int) T,
) (producedCount int64, consumedCount int64, elapsed time.Duration, err error) {

	start := time.Now()

	// Create a context that will cancel after testDuration.
	ctx, cancel := context.WithTimeout(context.Background(), testDuration)
	defer cancel()

	var totalProduced int64
	var totalConsumed int64

	var msgIndex int64
	var prodWg, consWg sync.WaitGroup
	prodWg.Add(cfg.NumProducers)
	consWg.Add(cfg.NumConsumers)

	// productionDone will be set to 1 when test duration expires.
	var productionDone int32 = 0

	// Launch a goroutine that waits for the test duration to expire and then
	// signals production is done.
	go func() {
		<-ctx.Done()
		atomic.StoreInt32(&productionDone, 1)
	}()

	// Spawn producers.
	for i := 0; i < cfg.NumProducers; i++ {
		go func() {
			defer prodWg.Done()
			for atomic.LoadInt32(&productionDone) == 0 {
				idx := atomic.AddInt64(&msgIndex, 1) - 1
				q.Enqueue(valueGenerator(int(idx)))
				atomic.AddInt64(&totalProduced, 1)
			}
		}()
	}

	// Spawn consumers.
	var producersFinished int32
	for i := 0; i < cfg.NumConsumers; i++ {
		go func() {
			defer consWg.Done()
			for {
				// Read the flag before dequeuing: an empty result only ends
				// the drain if no producer was left when it was observed.
				finished := atomic.LoadInt32(&producersFinished) == 1
				if _, ok := q.TryDequeue(); ok {
					atomic.AddInt64(&totalConsumed, 1)
					continue
				}
				if finished {
					return
				}
				runtime.Gosched()
			}
		}()
	}

	// Wait for the context to expire, then for all producers to finish.
	<-ctx.Done()
	prodWg.Wait()
	atomic.StoreInt32(&producersFinished, 1)
	consWg.Wait()

	elapsed = time.Since(start)
	producedCount = atomic.LoadInt64(&totalProduced)
	consumedCount = atomic.LoadInt64(&totalConsumed)

	if consumedCount > producedCount {
		return producedCount, consumedCount, elapsed,
			fmt.Errorf("consumed %d messages but only %d were produced", consumedCount, producedCount)
	}
	if cfg.NumConsumers > 0 && consumedCount != producedCount {
		return producedCount, consumedCount, elapsed,
			fmt.Errorf("lost messages: produced %d, consumed %d, %d still queued", producedCount, consumedCount, q.Len())
	}
	if v, ok := any(q).(queue.Validator); ok {
		if verr := v.Validate(); verr != nil {
			return producedCount, consumedCount, elapsed, fmt.Errorf("queue structure after run: %w", verr)
		}
	}
	return producedCount, consumedCount, elapsed, nil
}
