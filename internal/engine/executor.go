package engine

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// TradeExecutor submits a round-trip swap asset->anchor->asset. Submit is
// fire-and-forget: the engine never blocks on or observes the outcome,
// which arrives asynchronously through the swapper log.
type TradeExecutor interface {
	Submit(exchange, asset, anchor string) error
}

// ProcessExecutor spawns the external swapper command with the swap
// parameters appended as arguments.
type ProcessExecutor struct {
	Command string
}

// Submit starts the process and reaps it in the background.
func (p *ProcessExecutor) Submit(exchange, asset, anchor string) error {
	parts := strings.Fields(p.Command)
	if len(parts) == 0 {
		return fmt.Errorf("empty swapper command")
	}
	args := append(parts[1:], exchange, asset, anchor)
	cmd := exec.Command(parts[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start swapper: %w", err)
	}
	log.Printf("[INFO] swapper spawned: %s %s (pid %d)", parts[0], strings.Join(args, " "), cmd.Process.Pid)
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Printf("[WARN] swapper %s %s->%s exited: %v", exchange, asset, anchor, err)
		}
	}()
	return nil
}

// NoopExecutor only logs triggers; used when no swapper command is
// configured.
type NoopExecutor struct{}

func (n *NoopExecutor) Submit(exchange, asset, anchor string) error {
	log.Printf("[INFO] trigger (no swapper configured): @%s swap %s->%s->%s", exchange, asset, anchor, asset)
	return nil
}
