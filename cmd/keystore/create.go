package keystore

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"
	"github/chapool/go-airdrop/internal/airdrop/wallet/keystore"
	"github/chapool/go-airdrop/internal/airdrop/wallet/seed"
	"github/chapool/go-airdrop/internal/config"
	"golang.org/x/term"
)

const (
	outFlag      = "out"
	lightFlag    = "light"
	generateFlag = "generate"

	// 24 words
	entropyBits = 256
)

func newCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Encrypts a mnemonic into a keystore file",
		Long: `Encrypts a mnemonic into a keystore file for the local wallet provider

The mnemonic is taken from WALLET_MNEMONIC or read from the terminal.
Point WALLET_KEYSTORE_FILE at the result and unset WALLET_MNEMONIC.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out, err := cmd.Flags().GetString(outFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse args")
			}
			light, err := cmd.Flags().GetBool(lightFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse args")
			}
			generate, err := cmd.Flags().GetBool(generateFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse args")
			}

			if err := runCreate(out, light, generate); err != nil {
				log.Fatal().Err(err).Msg("Failed to create keystore")
			}
		},
	}

	cmd.Flags().StringP(outFlag, "o", "keystore.json", "Path of the keystore file to create")
	cmd.Flags().Bool(lightFlag, false, "Use light scrypt parameters (faster, weaker)")
	cmd.Flags().Bool(generateFlag, false, "Generate a new 24 word mnemonic instead of reading one")

	return cmd
}

func runCreate(out string, light bool, generate bool) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("keystore create needs an interactive terminal")
	}

	mnemonic, err := readMnemonic(fd, generate)
	if err != nil {
		return err
	}

	// rejects mnemonics the local provider could not use
	if err := seed.NewManager().Initialize(mnemonic, ""); err != nil {
		return err
	}

	password, err := readPassword(fd)
	if err != nil {
		return err
	}

	params := keystore.StandardScryptParams()
	if light {
		params = keystore.LightScryptParams()
	}

	f, err := keystore.Encrypt(mnemonic, password, params)
	if err != nil {
		return err
	}

	if err := keystore.Save(out, f); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Keystore written to %s\n", out)

	return nil
}

func readMnemonic(fd int, generate bool) (string, error) {
	if generate {
		entropy, err := bip39.NewEntropy(entropyBits)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate entropy")
		}

		mnemonic, err := bip39.NewMnemonic(entropy)
		if err != nil {
			return "", errors.Wrap(err, "failed to generate mnemonic")
		}

		fmt.Fprintf(os.Stderr, "Write down the new mnemonic, it is not shown again:\n\n%s\n\n", mnemonic)
		return mnemonic, nil
	}

	if mnemonic := config.DefaultServiceConfigFromEnv().Wallet.Mnemonic; mnemonic != "" {
		return mnemonic, nil
	}

	fmt.Fprint(os.Stderr, "Mnemonic: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read mnemonic")
	}

	return strings.Join(strings.Fields(string(raw)), " "), nil
}

func readPassword(fd int) (string, error) {
	fmt.Fprint(os.Stderr, "Keystore password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}

	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "failed to read password")
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}

	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}

	return string(first), nil
}
