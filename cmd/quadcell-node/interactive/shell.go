// Package interactive provides the bench shell for quadcell-node.
//
// The shell replaces the timed wake loop: cycles run on demand, downlink
// commands can be injected directly, and the node never deep-sleeps. It is
// meant for commissioning and bench verification, not production use.
package interactive

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/quadcell-project/quadcell-go/pkg/lorastack/simstack"
	"github.com/quadcell-project/quadcell-go/pkg/node"
	"github.com/quadcell-project/quadcell-go/pkg/nodecfg"
)

// Shell handles interactive mode for quadcell-node.
type Shell struct {
	node  *node.Node
	cfg   *nodecfg.Config
	store *nodecfg.Store
	stack *simstack.Stack
	rl    *readline.Instance

	// Periodic-cycle control
	runCtx    context.Context
	runCancel context.CancelFunc
	running   bool
}

// New creates a new interactive shell around an assembled node.
func New(n *node.Node, cfg *nodecfg.Config, store *nodecfg.Store, stack *simstack.Stack) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "node> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{node: n, cfg: cfg, store: store, stack: stack, rl: rl}, nil
}

// Run starts the interactive command loop and blocks until exit.
func (s *Shell) Run() {
	defer s.rl.Close()
	defer s.cmdStop()

	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			s.printHelp()

		case "status":
			s.cmdStatus()

		case "cycle", "c":
			s.cmdCycle()

		case "join":
			s.cmdJoin()

		case "report":
			s.cmdReport()

		case "downlink", "d":
			s.cmdDownlink(args)

		case "config":
			s.cmdConfig(args)

		case "nonces":
			s.cmdNonces()

		case "start":
			s.cmdStart()

		case "stop":
			s.cmdStop()

		case "sleep":
			s.node.PrepareSleep()
			fmt.Fprintln(s.rl.Stdout(), "State persisted (node stays awake in shell mode).")

		case "quit", "exit", "q":
			fmt.Fprintln(s.rl.Stdout(), "Exiting...")
			return

		default:
			fmt.Fprintf(s.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.rl.Stdout(), `
Quadcell Node Commands:
  Cycles:
    cycle              - Run one full wake cycle now
    start              - Run cycles periodically at the configured interval
    stop               - Stop periodic cycles
    sleep              - Persist state as the sleep path would

  Session:
    join               - Discard the session and join fresh
    report             - Force a status report on the next cycle
    nonces             - Show nonce and frame counters

  Configuration:
    config             - Show the runtime configuration
    config set <k> <v> - Set interval|stabilization|plan|subband|dwell|power|diag
    downlink <hex>     - Queue raw downlink bytes for the next receive window

  General:
    status             - Show node status
    help               - Show this help
    quit               - Exit`)
}

func (s *Shell) cmdStatus() {
	out := s.rl.Stdout()
	r := s.node.Retained()
	fmt.Fprintf(out, "Joined:         %v\n", s.stack.Joined())
	if s.stack.Joined() {
		fmt.Fprintf(out, "Device address: %s\n", s.stack.DeviceAddr())
	}
	fmt.Fprintf(out, "Boot count:     %d\n", r.BootCount)
	fmt.Fprintf(out, "Tx count:       %d\n", r.TxCount)
	fmt.Fprintf(out, "Session valid:  %v\n", r.SessionValid)
	fmt.Fprintf(out, "Last status:    minute %d\n", r.LastStatusMinute)
	fmt.Fprintf(out, "Wake interval:  %s\n", s.node.WakeInterval())
}

func (s *Shell) cmdCycle() {
	result, err := s.node.RunCycle(context.Background())
	out := s.rl.Stdout()
	if err != nil {
		fmt.Fprintf(out, "Cycle failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Phase: %s  data=%v status=%v restart=%v\n",
		result.Phase, result.DataSent, result.StatusSent, result.Restart)
}

func (s *Shell) cmdJoin() {
	s.node.Retained().Invalidate()
	phase := s.node.EstablishSession()
	fmt.Fprintf(s.rl.Stdout(), "Phase: %s\n", phase)
}

func (s *Shell) cmdReport() {
	// Injected exactly as the network would request it.
	s.stack.QueueDownlink([]byte{0x30})
	fmt.Fprintln(s.rl.Stdout(), "Status report queued for the next cycle.")
}

func (s *Shell) cmdDownlink(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.rl.Stdout(), "Usage: downlink <hex bytes>  e.g. downlink 20003c")
		return
	}
	frame, err := parseHex(args[0])
	if err != nil {
		fmt.Fprintf(s.rl.Stdout(), "Bad frame: %v\n", err)
		return
	}
	s.stack.QueueDownlink(frame)
	fmt.Fprintf(s.rl.Stdout(), "Queued %d byte(s) for the next receive window.\n", len(frame))
}

func (s *Shell) cmdConfig(args []string) {
	out := s.rl.Stdout()
	if len(args) == 0 {
		fmt.Fprintf(out, "interval:       %ds\n", s.cfg.TxIntervalSeconds)
		fmt.Fprintf(out, "stabilization:  %dms\n", s.cfg.StabilizationMillis)
		fmt.Fprintf(out, "plan:           %s\n", s.cfg.Plan)
		fmt.Fprintf(out, "subband:        %d\n", s.cfg.SubBand)
		fmt.Fprintf(out, "dwell:          %v\n", s.cfg.DwellEnforced)
		fmt.Fprintf(out, "power:          %v\n", s.cfg.SensorPowerControl)
		fmt.Fprintf(out, "diag:           %v\n", s.cfg.Diagnostics)
		return
	}
	if len(args) != 3 || args[0] != "set" {
		fmt.Fprintln(out, "Usage: config set <key> <value>")
		return
	}

	key, value := args[1], args[2]
	v, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		fmt.Fprintf(out, "Bad value: %v\n", err)
		return
	}

	switch key {
	case "interval":
		err = s.cfg.SetTxInterval(uint16(v))
	case "stabilization":
		err = s.cfg.SetStabilization(uint16(v))
	case "plan":
		err = s.cfg.SetPlan(uint8(v))
	case "subband":
		err = s.cfg.SetSubBand(uint8(v))
	case "dwell":
		err = s.cfg.SetDwellEnforced(uint8(v))
	case "power":
		err = s.cfg.SetSensorPowerControl(uint8(v))
	case "diag":
		err = s.cfg.SetDiagnostics(uint8(v))
	default:
		fmt.Fprintf(out, "Unknown key: %s\n", key)
		return
	}
	if err != nil {
		fmt.Fprintf(out, "Rejected: %v\n", err)
		return
	}
	if err := s.store.Save(*s.cfg); err != nil {
		fmt.Fprintf(out, "Applied but not persisted: %v\n", err)
		return
	}
	fmt.Fprintln(out, "Applied and persisted.")
}

func (s *Shell) cmdNonces() {
	out := s.rl.Stdout()
	fmt.Fprintf(out, "Dev nonce:      %d\n", s.stack.DevNonce())
	fmt.Fprintf(out, "Uplink counter: %d\n", s.stack.FCntUp())
}

// cmdStart launches periodic cycles at the configured interval, modeling
// continuous operation without the deep-sleep teardown.
func (s *Shell) cmdStart() {
	if s.running {
		fmt.Fprintln(s.rl.Stdout(), "Already running.")
		return
	}
	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	s.running = true
	go s.runPeriodic(s.runCtx)
	fmt.Fprintf(s.rl.Stdout(), "Periodic cycles started (every %s).\n", s.node.WakeInterval())
}

func (s *Shell) cmdStop() {
	if !s.running {
		return
	}
	s.runCancel()
	s.running = false
	fmt.Fprintln(s.rl.Stdout(), "Periodic cycles stopped.")
}

func (s *Shell) runPeriodic(ctx context.Context) {
	for {
		result, err := s.node.RunCycle(ctx)
		out := s.rl.Stdout()
		switch {
		case err != nil:
			fmt.Fprintf(out, "\n[auto] cycle failed: %v\n", err)
		case result.Restart:
			fmt.Fprintf(out, "\n[auto] restart command received, stopping\n")
			return
		default:
			fmt.Fprintf(out, "\n[auto] %s data=%v status=%v\n", result.Phase, result.DataSent, result.StatusSent)
		}

		timer := time.NewTimer(s.node.WakeInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// parseHex decodes a compact hex string, tolerating spaces and colons.
func parseHex(s string) ([]byte, error) {
	return hex.DecodeString(strings.NewReplacer(" ", "", ":", "").Replace(s))
}
