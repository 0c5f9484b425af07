package cli

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
)

func (a *App) adopt(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: adopt <requestId> <block>")
		return
	}

	requestID, ok := new(big.Int).SetString(args[0], 10)
	if !ok {
		fmt.Fprintln(a.out, "requestId must be decimal")
		return
	}
	block, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		fmt.Fprintln(a.out, "block must be a decimal block height")
		return
	}

	if err := a.svc.Adopt(ctx, requestID, block); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	a.status(ctx, args[:1])
}
