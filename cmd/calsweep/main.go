package main

import "github.com/b0uh/Google-Calendar-events-deletion/cmd/calsweep/cmd"

func main() {
	cmd.Execute()
}
