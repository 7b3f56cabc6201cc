// Package main implements the ocl-terminology CLI tool.
// It answers FHIR terminology operations over an OCL repository and prints
// FHIR R4 resources as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/config"
	"github.com/gofhir/terminology/internal/app"
)

const version = "0.1.0"

// Exit codes. Bad requests and malformed command lines exit with exitUsage.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// cli carries what every subcommand shares.
type cli struct {
	configPath string
	stdout     io.Writer

	// started is set once a command got past flag parsing.
	started bool
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "Error (%d): %v\n", tx.StatusCode(err), err)
	if !c.started || tx.IsBadRequest(err) {
		return exitUsage
	}
	return exitError
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ocl-terminology",
		Short: "OCL FHIR terminology service.",
		Long: `Answers FHIR terminology operations ($lookup, $validate-code, $expand)
over an OCL repository and prints FHIR R4 resources as JSON.

Configuration is read from ocl-terminology.yaml (or --config) and
OCLTX_* environment variables, e.g. OCLTX_DATABASE_DSN.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (YAML)")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return tx.BadRequest("%s: %v", cmd.Name(), err)
	})

	root.AddCommand(
		c.lookupCmd(),
		c.validateCodeCmd(),
		c.validateValueSetCmd(),
		c.expandCmd(),
		c.codeSystemCmd(),
		c.initDBCmd(),
		c.importCmd(),
	)
	return root
}

// withApp builds the App from configuration and runs fn as operation op.
func (c *cli) withApp(op string, fn func(ctx context.Context, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		c.started = true

		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Run(cmd.Context(), op, func(ctx context.Context) error {
			return fn(ctx, a)
		})
	}
}

func (c *cli) writeJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
