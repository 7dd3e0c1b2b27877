package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var lettersCmd = &cobra.Command{
	Use:   "letters",
	Short: "Manage letter values in the store",
}

var lettersSetCmd = &cobra.Command{
	Use:     "set LETTER VALUE [LETTER VALUE...]",
	Short:   "Store the value of one or more letters",
	Example: "  letterpuzzle letters set A 3 B 4",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected LETTER VALUE pairs, got %d arguments", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := OpenStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		for i := 0; i < len(args); i += 2 {
			v, err := strconv.ParseInt(args[i+1], 10, 64)
			if err != nil {
				return fmt.Errorf("value for %s: %w", args[i], err)
			}
			rec := &LetterRecord{Letter: strings.ToUpper(args[i]), Value: v}
			if err := store.Put(cmd.Context(), rec); err != nil {
				return err
			}
			logger.Debug("letter stored", zap.String("letter", rec.Letter), zap.Int64("value", rec.Value))
		}
		return nil
	},
}

var lettersGetCmd = &cobra.Command{
	Use:   "get LETTER",
	Short: "Print the value of a letter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := OpenStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(cmd.Context(), strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), rec.Value)
		return nil
	},
}

var lettersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored letters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := OpenStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		list, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, rec := range list {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", rec.Letter, rec.Value)
		}
		return nil
	},
}

func init() {
	lettersCmd.AddCommand(lettersSetCmd, lettersGetCmd, lettersListCmd)
}
