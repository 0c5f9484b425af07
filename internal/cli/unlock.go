package cli

import (
	"context"
	"fmt"
	"math/big"
	"os"
)

func (a *App) unlock(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(a.out, "Usage: unlock <requestId> [path]")
		return
	}
	requestID, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		fmt.Fprintln(a.out, "requestId must be decimal")
		return
	}

	content, meta, err := a.svc.Unlock(ctx, requestID)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	path := meta.Filename
	if len(args) == 2 {
		path = args[1]
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	fmt.Fprintf(a.out, "Wrote %d bytes to %s (%s)\n", len(content), path, meta.MimeType)
}
