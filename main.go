package main

import (
	"github.com/notname9390/lol/cmd"
)

func main() {
	cmd.Execute()
}
