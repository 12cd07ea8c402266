// rstar is the command-line front end of the index.
// Usage: go run ./cmd/rstar build data.csv
//        go run ./cmd/rstar verify
package main

import "RStarDB/cli"

func main() {
	cli.Execute()
}
