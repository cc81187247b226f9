package framework

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the default interval between loop iterations.
const DefaultInterval = 100 * time.Millisecond

// Loop runs controllers periodically, e.g. sampling sensors and sending
// frames, together with background Runnables.
type Loop struct {
	Interval time.Duration
	// MaxIterations stops the loop after the given number of iterations.
	// 0 means unlimited.
	MaxIterations uint64

	controllers []Controller
	runners     []Runnable
	lock        sync.Mutex

	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	ctx       context.Context
	time      time.Time
	iteration uint64
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
// Controllers which are also Runnable are started with the loop.
func (l *Loop) AddController(ctls ...Controller) *Loop {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.controllers = append(l.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds Runnable implementions.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
// It returns when ctx is done, MaxIterations is reached, or any
// Runnable fails.
func (l *Loop) Run(ctx context.Context) error {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	runners := l.runners
	l.lock.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	failCh := make(chan error, len(runners))
	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func(r Runnable) {
			defer wg.Done()
			if err := r.Run(ctx); err != nil && err != context.Canceled {
				failCh <- err
			}
		}(r)
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := uint64(0); l.MaxIterations == 0 || n < l.MaxIterations; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-failCh:
			return err
		case <-ticker.C:
		case <-l.wakeUpCh:
		}
		l.runIteration(ctx, n)
	}
	return nil
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(NewRunner().HandleSignals().Context); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// TriggerNext schedules the next iteration immediately.
func (l *Loop) TriggerNext() {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	ch := l.wakeUpCh
	l.lock.Unlock()
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (l *Loop) runIteration(ctx context.Context, n uint64) {
	iter := &loopIteration{ctx: ctx, time: time.Now(), iteration: n}
	l.lock.Lock()
	ctls := l.controllers
	l.lock.Unlock()
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Time() time.Time {
	return t.time
}

func (t *loopIteration) Iteration() uint64 {
	return t.iteration
}
