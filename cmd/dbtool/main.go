package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "dbtool",
		Short: "Maintain the transfer record table",
		Long: `dbtool operates on the medium selected by STORE_BACKEND.

Commands:
  init      Create the table or add missing columns
  seed      Append records from a JSON file
  import    Append records from a workbook
  export    Write all records to a workbook
  list      Print records as a table
  summary   Print counts by status`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCommand(),
		newSeedCommand(),
		newImportCommand(),
		newExportCommand(),
		newListCommand(),
		newSummaryCommand(),
	)
	return root
}
