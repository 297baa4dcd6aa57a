package main

import "github.com/hrkit/hrclient/cmd/hrctl/cmd"

func main() {
	cmd.Execute()
}
