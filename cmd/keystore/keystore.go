package keystore

import (
	"github.com/spf13/cobra"
	"github/chapool/go-airdrop/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
	)
}
