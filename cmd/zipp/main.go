package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/nguyengg/zipp/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	code := cmd.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	exit(code)
}
