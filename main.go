package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"RStarDB/cli"
)

// Interactive shell over one open store. Every line is an rstar command,
// e.g. "insert 7 1.5 2.5", "verify", "inspect -e". Global flags such as
// --dir apply only to the first command, which opens the store.
func main() {
	sess := &cli.Session{KeepOpen: true}
	defer sess.Close()

	scanner := bufio.NewScanner(os.Stdin)
	// REPL
	for {
		fmt.Print("rstar> ")

		if !scanner.Scan() { // Ctrl+D pressed
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(line, "exit") {
			break
		}
		if line == "" {
			continue
		}

		cmd := cli.NewRootCmd(sess)
		cmd.SetArgs(strings.Fields(line))
		if err := cmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}
