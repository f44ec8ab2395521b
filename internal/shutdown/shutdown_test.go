package shutdown

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func Test_ListenForShutdown(t *testing.T) {
	l := zap.NewNop()

	t.Run("Should call the handler when a signal arrives", func(t *testing.T) {
		signalChan := make(chan os.Signal, 1)
		called := make(chan struct{})

		go ListenForShutdown(context.Background(), signalChan, func() {
			close(called)
		}, l)
		signalChan <- syscall.SIGTERM

		select {
		case <-called:
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not called")
		}
	})
	t.Run("Should return without calling the handler when the context is done", func(t *testing.T) {
		signalChan := make(chan os.Signal, 1)
		ctx, cancel := context.WithCancel(context.Background())
		returned := make(chan struct{})
		handlerCalled := false

		go func() {
			ListenForShutdown(ctx, signalChan, func() {
				handlerCalled = true
			}, l)
			close(returned)
		}()
		cancel()

		select {
		case <-returned:
		case <-time.After(2 * time.Second):
			t.Fatal("listener did not return")
		}
		assert.False(t, handlerCalled)
	})
}
