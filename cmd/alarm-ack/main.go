package main

import "github.com/oshokin/alarm-ack/cmd/alarm-ack/cmd"

func main() {
	cmd.Execute()
}
