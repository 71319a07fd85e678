package main

import "github.com/vibast-solutions/portal-payments/cmd"

func main() {
	cmd.Execute()
}
