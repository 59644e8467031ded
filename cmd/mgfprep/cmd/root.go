// Package cmd provides the mgfprep command line
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/mgfprep/pkg/batch"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mgfprep <input.mgf> <output.mgf> <config.yaml>",
		Short: "mgfprep - MGF charge-state normalizer",
		Long: `mgfprep prepares MGF spectra for a de novo peptide sequencing model.

Every spectrum whose precursor charge is outside 1..max_charge (read from the
model's config.yaml) gets its charge clamped into that range and its peak list
emptied, so the model neither fails on it nor infers from it. All other
spectra are copied unchanged. The output keeps the input order and writes the
TITLE, RTINSECONDS, PEPMASS and CHARGE header lines first.

Optional config keys:
  charge_clamp: nearest | range   how an invalid charge is moved into the set
  library_path: <file.db>         also write an mzVault-compatible SQLite library
  progress_every: <n>             progress line cadence (0 disables)

Example:
  mgfprep spectra.mgf spectra.prepared.mgf config.yaml`,
		Version:       "1.0.0",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := batch.Run(batch.Options{
				InputPath:  args[0],
				OutputPath: args[1],
				ConfigPath: args[2],
				Stdout:     cmd.OutOrStdout(),
				Stderr:     cmd.ErrOrStderr(),
			})
			return err
		},
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
