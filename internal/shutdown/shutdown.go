package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

func CreateGracefulShutdownChannel() chan os.Signal {
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGTERM, syscall.SIGINT)

	return gracefulShutdown
}

// ListenForShutdown blocks until a signal arrives on signalChan or ctx is done,
// calling signalHandler only in the former case.
func ListenForShutdown(ctx context.Context, signalChan chan os.Signal, signalHandler func(), l *zap.Logger) {
	select {
	case sig := <-signalChan:
		l.Sugar().Infof("caught signal %v", sig)
		signalHandler()
	case <-ctx.Done():
	}
	signal.Stop(signalChan)
}

// ContextWithGracefulShutdown returns a context that is cancelled on SIGTERM or SIGINT.
// In-flight database calls observe the cancellation; rows already written stay in place.
func ContextWithGracefulShutdown(parent context.Context, l *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signalChan := CreateGracefulShutdownChannel()

	go ListenForShutdown(ctx, signalChan, func() {
		l.Sugar().Info("Shutting down...")
		cancel()
	}, l)

	return ctx, cancel
}
