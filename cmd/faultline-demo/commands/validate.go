package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/faultline/policyconfig"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <chain-file>",
		Short: "Validate a policy chain definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := policyconfig.Load(args[0])
			if err != nil {
				return err
			}

			if _, err := cfg.Build(); err != nil {
				return fmt.Errorf("chain %q does not build: %w", cfg.Name, err)
			}

			log.Info().
				Str("chain", cfg.Name).
				Int("policies", len(cfg.Policies)).
				Msg("Chain definition is valid")
			return nil
		},
	}
}
