package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/itodo/internal/config"
)

const starterHeader = `# itodo configuration. Every key is optional; missing keys keep their
# defaults. Any key can also be overridden per run: itodo read.MAX_SEARCH_LEN=20
`

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter itodo.yml",
		Long: `Write the default configuration to a YAML file that itodo picks up on
later runs. path defaults to ./itodo.yml. An existing file is left alone
unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Default().Config.FileIn
			if len(args) > 0 {
				path = args[0]
			}
			return runInit(path, dryRun, force, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the file instead of writing it")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

// runInit writes the starter config to path.
func runInit(path string, dryRun, force bool, stdout, stderr io.Writer) error {
	content, err := starterConfig()
	if err != nil {
		return err
	}

	if dryRun {
		_, _ = stdout.Write(content)
		return nil
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote starter config to %s\n", path)
	return nil
}

// starterConfig returns the default configuration as commented YAML.
func starterConfig() ([]byte, error) {
	data, err := config.Default().YAML()
	if err != nil {
		return nil, err
	}
	return append([]byte(starterHeader), data...), nil
}
