// Package mapping contains account-mapping maintenance commands
package mapping

import (
	"os"

	"github.com/spf13/cobra"

	"wrh/nightaudit/cmd/root"
	"wrh/nightaudit/internal/mappingtable"
)

var mappingFile string

// Cmd represents the mapping command
var Cmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect the account mapping sheet",
	Long:  `Inspect and validate the spreadsheet that maps hotel source account codes to NetSuite target accounts.`,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a mapping sheet",
	Long:  `Load a mapping sheet (.xlsx or .csv) and report its entry count and any rows that were rejected or overridden.`,
	Run:   validateFunc,
}

func init() {
	Cmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&mappingFile, "file", "f", "", "Mapping sheet to validate (required)")
	_ = validateCmd.MarkFlagRequired("file")
}

func validateFunc(cmd *cobra.Command, args []string) {
	content, err := os.ReadFile(mappingFile)
	if err != nil {
		root.Log.Fatalf("Failed to read mapping sheet %s: %v", mappingFile, err)
	}

	table, err := mappingtable.Load(mappingFile, content)
	if err != nil {
		root.Log.Fatalf("Mapping sheet %s is not loadable: %v", mappingFile, err)
	}

	root.Log.Infof("Loaded %d mapping entries from %s", len(table.Entries()), mappingFile)
	issues := table.Issues()
	if len(issues) == 0 {
		root.Log.Info("No issues found")
		return
	}
	for _, issue := range issues {
		root.Log.Warnf("Row %d: %s", issue.Row, issue.Reason)
	}
	root.Log.Warnf("%d rows need attention", len(issues))
}
