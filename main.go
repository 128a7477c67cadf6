package main

import "github.com/wormhole-demo/messaging/cmd"

func main() {
	cmd.Execute()
}
