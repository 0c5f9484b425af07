package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Nkovaturient/blocklock-kit/internal/countdown"
	"github.com/Nkovaturient/blocklock-kit/internal/release"
)

// watch runs the poll loop until the user presses Enter.
func (a *App) watch(ctx context.Context) {
	fmt.Fprintln(a.out, "Watching (press Enter to stop)...")

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.watcher.OnUpdate = func(r *release.Release, e countdown.Estimate) {
		fmt.Fprintf(a.out, "%s  %s\n", time.Now().Format("15:04:05"), formatRelease(r, e))
	}
	defer func() { a.watcher.OnUpdate = nil }()

	go func() {
		_, _ = a.reader.ReadString('\n')
		cancel()
	}()

	_ = a.watcher.Run(wctx)
	fmt.Fprintln(a.out, "Stopped watching.")
}
