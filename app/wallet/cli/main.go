package main

import (
	"github.com/powledger/node/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
