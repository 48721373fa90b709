package main

import "github.com/theirongolddev/budgetplanner/cmd"

func main() {
	cmd.Execute()
}
