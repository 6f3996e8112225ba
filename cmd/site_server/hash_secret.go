package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/jonathan/pagebuilder-site/internal/config"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var hashSecretCost int

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret [secret]",
	Short: "Hash a preview secret for PREVIEW_SECRET_HASH",
	Long:  `Print the bcrypt hash of a preview secret. The secret is read from the first line of stdin when not given as an argument.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHashSecret,
}

func init() {
	hashSecretCmd.Flags().IntVar(&hashSecretCost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	rootCmd.AddCommand(hashSecretCmd)
}

func runHashSecret(cmd *cobra.Command, args []string) error {
	var secret string
	if len(args) == 1 {
		secret = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read secret from stdin: %w", err)
		}
		secret = strings.TrimRight(line, "\r\n")
	}

	if hashSecretCost < bcrypt.MinCost || hashSecretCost > bcrypt.MaxCost {
		return fmt.Errorf("--cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	hash, err := config.HashSecret(secret, hashSecretCost)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
	return err
}
