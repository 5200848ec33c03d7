package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finsight/internal/bridge"
)

func invokeCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "invoke <command> [json-args]",
		Short: "Run a single bridge command",
		Long: `Run one named command through the command bridge and print its JSON result.
This is the same interface a front end uses.`,
		Example: `  finsight invoke get_all_categories
  finsight invoke delete_category '{"category_id": 3}'
  finsight invoke --list`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			b := bridge.New(store)

			if list {
				for _, name := range b.Commands() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			if len(args) == 0 {
				return errors.New("a command name is required (see --list)")
			}

			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}

			result, err := b.Invoke(ctx, args[0], raw)
			if err != nil {
				return errors.New(bridge.Message(err))
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List available commands")

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer JSON-lines bridge requests on stdin",
		Long: `Read one JSON request per line from stdin and write one JSON response per
line to stdout, in order:

  request:  {"id": "1", "command": "get_all_categories", "args": {}}
  response: {"result": [...], "id": "1", "ok": true}`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, _, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			return bridge.New(store).Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
