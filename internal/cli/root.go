package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "blocklock shell (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprint(a.out, "blocklock> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			fmt.Fprintln(a.out, "Available commands:")
			fmt.Fprintln(a.out, "  draft <file> <targetBlock>   encrypt, upload and build a time-lock request")
			fmt.Fprintln(a.out, "  adopt <requestId> <block>    pick up a submitted creation from the chain")
			fmt.Fprintln(a.out, "  list                         show all known releases")
			fmt.Fprintln(a.out, "  status <requestId>           show one release with its countdown")
			fmt.Fprintln(a.out, "  unlock <requestId> [path]    fetch and decrypt revealed content")
			fmt.Fprintln(a.out, "  share <requestId>            presign a download link for revealed content")
			fmt.Fprintln(a.out, "  tick                         run one poll cycle now")
			fmt.Fprintln(a.out, "  watch                        poll continuously (Enter to stop)")
			fmt.Fprintln(a.out, "  exit")
		case "draft":
			a.draft(ctx, args)
		case "adopt":
			a.adopt(ctx, args)
		case "list":
			a.list(ctx)
		case "status":
			a.status(ctx, args)
		case "unlock":
			a.unlock(ctx, args)
		case "share":
			a.share(ctx, args)
		case "tick":
			a.watcher.Tick(ctx)
			a.list(ctx)
		case "watch":
			a.watch(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}
