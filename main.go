package main

import "github.com/oss-pulse/leaderboard/cmd"

func main() {
	cmd.Execute()
}
