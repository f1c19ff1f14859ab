package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PaulFidika/vipbridge/apikey"
	"github.com/spf13/cobra"
)

var hashkeyArgon2 bool

var hashkeyCmd = &cobra.Command{
	Use:   "hashkey <secret>",
	Short: "Print a hash of the webhook secret for VIP_WEBHOOK_API_KEY",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := hashSecret(args[0], hashkeyArgon2)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	hashkeyCmd.Flags().BoolVar(&hashkeyArgon2, "argon2id", false, "hash with argon2id instead of bcrypt")
}

func hashSecret(secret string, argon bool) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("secret must not be empty")
	}
	if argon {
		return apikey.HashArgon2id(secret)
	}
	return apikey.HashBcrypt(secret)
}
