package main

import (
	"github.com/Sephra1/lisk-sdk/cmd"
)

func main() {
	cmd.Execute()
}
