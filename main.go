package main

import "rto_engine/cmd"

func main() {
	cmd.Execute()
}
