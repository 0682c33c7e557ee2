package logger

import (
	"context"
	"fmt"
	"log"
	"os"
)

// BootstrapLogger is used while the configuration is still being loaded,
// before the level and format of the main logger are known.
type BootstrapLogger struct {
	logger *log.Logger
}

// NewBootstrapLogger creates the startup logger.
func NewBootstrapLogger() *BootstrapLogger {
	return &BootstrapLogger{
		logger: log.New(os.Stderr, "[relayd boot] ", log.LstdFlags),
	}
}

func (b *BootstrapLogger) Debug(ctx context.Context, msg string, args ...any) {
	b.print("DEBUG", msg, args)
}

func (b *BootstrapLogger) Info(ctx context.Context, msg string, args ...any) {
	b.print("INFO", msg, args)
}

func (b *BootstrapLogger) Warn(ctx context.Context, msg string, args ...any) {
	b.print("WARN", msg, args)
}

func (b *BootstrapLogger) Error(ctx context.Context, msg string, args ...any) {
	b.print("ERROR", msg, args)
}

func (b *BootstrapLogger) print(level string, msg string, args []any) {
	line := level + ": " + msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	if len(args)%2 == 1 {
		line += fmt.Sprintf(" !EXTRA=%v", args[len(args)-1])
	}
	b.logger.Print(line)
}

var _ Logger = (*BootstrapLogger)(nil)
