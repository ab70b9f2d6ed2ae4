package main

import "github.com/classtrack/rollcall/cmd"

func main() {
	cmd.Execute()
}
