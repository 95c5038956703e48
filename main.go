// Split-value verifiable election CLI
//
// Usage:
//
//	splitvalue run <election_id>      Run an election from <election_id>.parameters.txt
//	splitvalue verify <election_id>   Not available: prints a notice and exits non-zero
//	splitvalue help                   Show this help
package main

import (
	"fmt"
	"os"

	"github.com/markkurossi/tabulate"
	"go.uber.org/zap"

	"github.com/svvote/splitvalue/election"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		cmdRun()
	case "verify":
		cmdVerify()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`split-value verifiable election

Usage:
  splitvalue <command> [arguments]

Commands:
  run <election_id>      Run an election from <election_id>.parameters.txt,
                          writing <election_id>.sbb.txt
  verify <election_id>    Not available (run verifies inline); exits non-zero
  help                    Show this help

For library use, see the election, prover and verifier packages.`)
}

func cmdRun() {
	if len(os.Args) < 3 {
		fmt.Println("usage: splitvalue run <election_id>")
		os.Exit(1)
	}
	electionID := os.Args[2]

	data, err := os.ReadFile(electionID + ".parameters.txt")
	if err != nil {
		fmt.Printf("Error reading parameters: %v\n", err)
		os.Exit(1)
	}
	cfg, err := election.LoadConfig(data)
	if err != nil {
		fmt.Printf("Error loading parameters: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	e := election.New(cfg, logger)
	runErr := e.Run()

	if err := writeTranscript(e, electionID); err != nil {
		fmt.Printf("Error writing %s.sbb.txt: %v\n", electionID, err)
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Printf("Election failed: %v\n", runErr)
		os.Exit(1)
	}

	printTally(e)
	fmt.Println("\nall verifications passed")
}

// writeTranscript serializes the election's SBB board to <election_id>.sbb.txt,
// the canonical JSON array of [header, payload] pairs that is the protocol's
// external output artifact.
func writeTranscript(e *election.Election, electionID string) error {
	data, err := e.Board.Canonical(len(e.Board.Entries), e.Config.IndentString())
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(electionID+".sbb.txt", data, 0644)
}

func cmdVerify() {
	fmt.Println("verify: re-run the prover's `run` command; a standalone")
	fmt.Println("transcript verifier over the on-disk SBB file is not yet wired.")
	os.Exit(1)
}

func printTally(e *election.Election) {
	tab := tabulate.New(tabulate.Unicode)
	tab.Header("race").SetAlign(tabulate.ML)
	tab.Header("choice").SetAlign(tabulate.ML)
	tab.Header("count").SetAlign(tabulate.MR)

	for raceID, result := range e.Results() {
		for choice, count := range result.Counts {
			row := tab.Row()
			row.Column(raceID)
			row.Column(choice)
			row.Column(fmt.Sprintf("%d", count))
		}
	}
	tab.Print(os.Stdout)
}
