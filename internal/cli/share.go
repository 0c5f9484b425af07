package cli

import (
	"context"
	"fmt"
	"math/big"
	"time"
)

const shareLinkTTL = 15 * time.Minute

func (a *App) share(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: share <requestId>")
		return
	}
	requestID, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		fmt.Fprintln(a.out, "requestId must be decimal")
		return
	}

	url, err := a.svc.ShareLink(ctx, requestID, shareLinkTTL)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	fmt.Fprintf(a.out, "Download link (valid %s): %s\n", shareLinkTTL, url)
	fmt.Fprintln(a.out, "The content is still encrypted; share the revealed key separately.")
}
