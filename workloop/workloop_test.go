package workloop

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
	"golang.org/x/sync/errgroup"

	"go.viam.com/pinctrl/logging"
)

func TestRunNested(t *testing.T) {
	w := New("test", logging.NewTestLogger(t))
	defer w.Close()

	ctx := context.Background()
	test.That(t, w.OnLoop(ctx), test.ShouldBeFalse)

	var depth int
	err := w.Run(ctx, func(ctx context.Context) error {
		test.That(t, w.OnLoop(ctx), test.ShouldBeTrue)
		depth++
		// A nested call on the loop runs inline instead of deadlocking.
		return w.Run(ctx, func(ctx context.Context) error {
			depth++
			return nil
		})
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, depth, test.ShouldEqual, 2)

	other := New("other", logging.NewTestLogger(t))
	defer other.Close()
	test.That(t, w.Run(ctx, func(ctx context.Context) error {
		test.That(t, other.OnLoop(ctx), test.ShouldBeFalse)
		return nil
	}), test.ShouldBeNil)
}

func TestRunSerializes(t *testing.T) {
	w := New("test", logging.NewTestLogger(t))
	defer w.Close()

	var inside atomic.Int32
	var overlapped atomic.Bool
	counter := 0

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			return w.Run(context.Background(), func(ctx context.Context) error {
				if inside.Inc() != 1 {
					overlapped.Store(true)
				}
				counter++
				inside.Dec()
				return nil
			})
		})
	}
	test.That(t, g.Wait(), test.ShouldBeNil)
	test.That(t, overlapped.Load(), test.ShouldBeFalse)
	test.That(t, counter, test.ShouldEqual, 32)
}

func TestRunErrors(t *testing.T) {
	w := New("test", logging.NewTestLogger(t))

	t.Run("cancelled before start", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ran := false
		// Keep the loop busy so the request cannot be picked up.
		release := make(chan struct{})
		started := make(chan struct{})
		go w.Run(context.Background(), func(ctx context.Context) error {
			close(started)
			<-release
			return nil
		})
		<-started
		err := w.Run(ctx, func(ctx context.Context) error {
			ran = true
			return nil
		})
		close(release)
		test.That(t, err, test.ShouldEqual, context.Canceled)
		test.That(t, ran, test.ShouldBeFalse)
	})

	t.Run("panics become errors", func(t *testing.T) {
		err := w.Run(context.Background(), func(ctx context.Context) error {
			panic("boom")
		})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "boom")
		test.That(t, w.Run(context.Background(), func(ctx context.Context) error { return nil }), test.ShouldBeNil)
	})

	w.Close()
	w.Close()
	err := w.Run(context.Background(), func(ctx context.Context) error { return nil })
	test.That(t, err, test.ShouldEqual, ErrClosed)
}

func TestInterruptCoalesces(t *testing.T) {
	w := New("test", logging.NewTestLogger(t))
	defer w.Close()

	calls := make(chan struct{}, 8)
	release := make(chan struct{})
	var count atomic.Int32
	w.SetInterruptHandler(func(ctx context.Context) {
		test.That(t, w.OnLoop(ctx), test.ShouldBeTrue)
		if count.Inc() == 1 {
			calls <- struct{}{}
			<-release
			return
		}
		calls <- struct{}{}
	})

	w.Interrupt()
	<-calls
	// The handler is blocked; these all merge into a single pending signal.
	for i := 0; i < 5; i++ {
		w.Interrupt()
	}
	close(release)
	<-calls

	// Run completes after the second handler pass because both execute on the loop.
	test.That(t, w.Run(context.Background(), func(ctx context.Context) error { return nil }), test.ShouldBeNil)
	test.That(t, count.Load(), test.ShouldEqual, int32(2))
}
