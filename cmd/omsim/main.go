package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/byzantine-generals/go-om/dump"
	"github.com/byzantine-generals/go-om/om"
	"github.com/byzantine-generals/go-om/sim"
	"github.com/byzantine-generals/go-om/sim/fault"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "omsim",
		Usage: "oral-messages byzantine agreement simulator",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "participants",
				Aliases: []string{"n"},
				Value:   7,
				Usage:   "number of participants",
			},
			&cli.IntFlag{
				Name:    "rounds",
				Aliases: []string{"m"},
				Value:   2,
				Usage:   "relay rounds after the source's initial send, the maximum faults tolerated",
			},
			&cli.Uint64Flag{
				Name:  "source",
				Value: 3,
				Usage: "id of the participant issuing the order",
			},
			&cli.StringFlag{
				Name:  "source-value",
				Value: "0",
				Usage: "order the source holds as its own input",
			},
			&cli.StringFlag{
				Name:  "default-value",
				Value: "1",
				Usage: "shared fallback every participant falls to on a tie",
			},
			&cli.BoolFlag{
				Name:  "honest-source",
				Usage: "relay the source's input faithfully instead of splitting it by destination parity",
			},
			&cli.Uint64SliceFlag{
				Name:  "liars",
				Value: cli.NewUint64Slice(2),
				Usage: "ids that always relay 1 no matter what they received",
			},
			&cli.Uint64SliceFlag{
				Name:  "silent",
				Usage: "ids that relay records carrying no vote",
			},
			&cli.IntFlag{
				Name:  "trace",
				Value: sim.TraceNone,
				Usage: "trace verbosity level",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level for the omsim subsystems",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Value:   true,
				Usage:   "prompt for per-participant record dumps after the run",
			},
		},
		Action: run,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %+v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	sourceValue, err := parseValue(c.String("source-value"))
	if err != nil {
		return fmt.Errorf("parsing source-value: %w", err)
	}
	defaultValue, err := parseValue(c.String("default-value"))
	if err != nil {
		return fmt.Errorf("parsing default-value: %w", err)
	}
	if level := c.String("log-level"); level != "" {
		for _, system := range []string{"omsim", "omsim/participant"} {
			if err := logging.SetLogLevel(system, level); err != nil {
				return fmt.Errorf("setting log level: %w", err)
			}
		}
	}

	source := om.ID(c.Uint64("source"))
	policyOptions := []fault.PolicyOption{
		fault.WithSourceValue(sourceValue),
		fault.WithDefaultValue(defaultValue),
	}
	if !c.Bool("honest-source") {
		policyOptions = append(policyOptions, fault.WithBehavior(source, fault.TwoFaced{Even: om.One, Odd: om.Zero}))
	}
	for _, id := range c.Uint64Slice("liars") {
		policyOptions = append(policyOptions, fault.WithBehavior(om.ID(id), fault.Constant(om.One)))
	}
	for _, id := range c.Uint64Slice("silent") {
		policyOptions = append(policyOptions, fault.WithBehavior(om.ID(id), fault.Silent{}))
	}
	policy, err := fault.NewPolicy(policyOptions...)
	if err != nil {
		return fmt.Errorf("configuring fault policy: %w", err)
	}

	sm, err := sim.NewSimulation(
		sim.WithParticipantCount(c.Int("participants")),
		sim.WithRounds(c.Int("rounds")),
		sim.WithSource(source),
		sim.WithFaultPolicy(policy),
		sim.WithTraceLevel(c.Int("trace")),
	)
	if err != nil {
		return fmt.Errorf("instantiating simulation: %w", err)
	}
	if err := sm.Run(c.Context); err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	for _, decision := range sm.Decisions() {
		if decision.Source {
			fmt.Print("Source ")
		}
		fmt.Printf("Process %d", decision.Participant)
		if decision.Faulty {
			fmt.Print(" is faulty")
		} else {
			fmt.Printf(" decides on value %s", decision.Value)
		}
		fmt.Println()
	}
	fmt.Println()

	if !c.Bool("interactive") {
		return nil
	}
	return dumpLoop(c.Context, sm, c.Int("trace") > sim.TraceNone)
}

// dumpLoop prompts for participant ids and prints their record trees
// until an empty line, EOF or cancellation. With textFirst set the
// plain dump prints ahead of the DOT one, pausing for enter in
// between.
func dumpLoop(ctx context.Context, sm *sim.Simulation, textFirst bool) error {
	scanner := bufio.NewScanner(os.Stdin)
	for ctx.Err() == nil {
		fmt.Print("ID of process to dump, or enter to quit: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			return nil
		}
		id, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			fmt.Printf("not a participant id: %q\n", line)
			continue
		}
		subject := sm.Participant(om.ID(id))
		if subject == nil {
			fmt.Printf("no participant with id %d\n", id)
			continue
		}
		if textFirst {
			fmt.Println(dump.Text(subject))
			if !scanner.Scan() {
				return scanner.Err()
			}
		}
		fmt.Println(dump.Dot(subject))
	}
	return ctx.Err()
}

func parseValue(s string) (om.Value, error) {
	switch s {
	case "0":
		return om.Zero, nil
	case "1":
		return om.One, nil
	case "?":
		return om.Unknown, nil
	case "X":
		return om.Unset, nil
	}
	return om.Unset, fmt.Errorf("invalid value %q, want one of 0, 1, ?, X", s)
}
