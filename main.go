package main

import "auditai/cmd"

func main() {
	cmd.Execute()
}
