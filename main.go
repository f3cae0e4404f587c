package main

import "github.com/yash7pute/AI-Operations-Command-Center-sub010/cmd"

func main() {
	cmd.Execute()
}
