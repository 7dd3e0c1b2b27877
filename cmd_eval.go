package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	evalLookupURL string
	evalPromptRHS bool
)

var evalCmd = &cobra.Command{
	Use:   "eval SYMBOL...",
	Short: "Evaluate an equation from the command line",
	Long: `Evaluates an equation given as separate symbols, for example

  letterpuzzle eval A + B '>' 10

Letters are resolved from the local store, or from a running lookup service
with --lookup-url. With --prompt-rhs the right-hand side integer is read
interactively and appended to the symbols. Put -- before the symbols when the
right-hand side is negative.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalLookupURL, "lookup-url", "", "Base URL of a lookup service (overrides config)")
	evalCmd.Flags().BoolVar(&evalPromptRHS, "prompt-rhs", false, "Read the right-hand side integer from stdin")
}

func runEval(cmd *cobra.Command, args []string) error {
	alphabet, err := cfg.Alphabet()
	if err != nil {
		return err
	}
	tiles, err := ParseTiles(args, alphabet)
	if err != nil {
		return err
	}
	if evalPromptRHS {
		n, err := PromptRHS(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("reading RHS: %w", err)
		}
		tiles = append(tiles, Integer(n))
	}

	if evalLookupURL != "" {
		cfg.Lookup.BaseURL = evalLookupURL
	}
	var store LetterStore
	if cfg.Lookup.BaseURL == "" {
		if store, err = OpenStore(cfg.Store); err != nil {
			return err
		}
		defer store.Close()
	}
	lookup, err := newLookup(cfg, store)
	if err != nil {
		return err
	}

	engine := NewEngine(lookup, logger)
	for _, t := range tiles {
		if err := engine.Append(t); err != nil {
			return err
		}
	}

	out, err := engine.Evaluate(cmd.Context())
	if err != nil {
		kind, msg, _ := classifyEvalError(err)
		return fmt.Errorf("%s (%s): %w", msg, kind, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s => %g => %t\n", out.Equation, out.LHS, out.Result)
	return nil
}
