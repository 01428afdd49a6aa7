package main

import (
	"github.com/subosito/gotenv"
	"github/chapool/go-airdrop/cmd"
)

func main() {
	// .env is optional, the real environment always wins
	_ = gotenv.Load()

	cmd.Execute()
}
