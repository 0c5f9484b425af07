package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"mime"
	"os"
	"path/filepath"

	"github.com/Nkovaturient/blocklock-kit/internal/common"
	"github.com/Nkovaturient/blocklock-kit/internal/filex"
	"github.com/Nkovaturient/blocklock-kit/internal/service"
)

// draft runs the client half of a creation: encrypt, upload, time-lock.
// The resulting request is written next to the input file for submission
// through the user's wallet; `adopt` picks the release up afterwards.
func (a *App) draft(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: draft <file> <targetBlock>")
		return
	}

	target, ok := new(big.Int).SetString(args[1], 10)
	if !ok {
		fmt.Fprintln(a.out, "targetBlock must be a decimal block height")
		return
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	passphrase, err := GetPassphrase(a.out)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	defer common.WipeBytes(passphrase)

	opts := service.CreateOptions{
		Filename:   filepath.Base(args[0]),
		MimeType:   mime.TypeByExtension(filepath.Ext(args[0])),
		Passphrase: passphrase,
	}

	d, err := a.svc.BuildDraft(ctx, content, target, opts)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	dir, err := filex.EnsureDir("drafts")
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	reqPath := filepath.Join(dir, filepath.Base(args[0])+".tlock")
	if err := os.WriteFile(reqPath, d.Request.Ciphertext, 0o600); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}

	fmt.Fprintln(a.out, "Draft built. Submit it with your wallet, then run 'adopt'.")
	fmt.Fprintln(a.out, "  locator:      ", d.Locator)
	fmt.Fprintln(a.out, "  fileCidHash:  ", d.FileCidHash.Hex())
	fmt.Fprintln(a.out, "  condition:    0x"+hex.EncodeToString(d.Request.Condition))
	fmt.Fprintln(a.out, "  ciphertext:   ", reqPath)
	fmt.Fprintln(a.out, "  unlockAtBlock:", target)
}
