package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nilm987521/gofep/cmd/fepctl/cmdutil"
	"github.com/nilm987521/gofep/internal/cli/output"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Field definition table management",
	Long: `Inspect and reload the processor's field definition tables.

Each provider table drives how the codec encodes and decodes that
network's messages. Reload picks up an edited definition file without
restarting the processor.

Examples:
  # List registered providers
  fepctl fields list

  # Show one provider's field definitions
  fepctl fields get FISC

  # Reload a provider's definition file
  fepctl fields reload FISC`,
}

var fieldsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List field table providers",
	RunE:  runFieldsList,
}

var fieldsGetCmd = &cobra.Command{
	Use:   "get <provider>",
	Short: "Show a provider's field definitions",
	Args:  cobra.ExactArgs(1),
	RunE:  runFieldsGet,
}

var fieldsReloadCmd = &cobra.Command{
	Use:   "reload <provider>",
	Short: "Reload a provider's definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFieldsReload,
}

func init() {
	fieldsCmd.AddCommand(fieldsListCmd)
	fieldsCmd.AddCommand(fieldsGetCmd)
	fieldsCmd.AddCommand(fieldsReloadCmd)
}

// providerList renders provider names as a table.
type providerList []string

func (p providerList) Headers() []string {
	return []string{"PROVIDER"}
}

func (p providerList) Rows() [][]string {
	rows := make([][]string, 0, len(p))
	for _, name := range p {
		rows = append(rows, []string{name})
	}
	return rows
}

func runFieldsList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	providers, err := client.ListFieldProviders()
	if err != nil {
		return fmt.Errorf("failed to list field providers: %w", err)
	}

	return cmdutil.PrintOutput(os.Stdout, providers, len(providers) == 0, "No field table providers registered.", providerList(providers))
}

// fieldTableView renders one provider's definitions as a table.
type fieldTableView struct {
	fields []fieldRow
}

type fieldRow struct {
	number         int
	name           string
	fieldType      string
	lengthType     string
	length         int
	dataEncoding   string
	lengthEncoding string
	sensitive      bool
}

func (v fieldTableView) Headers() []string {
	return []string{"FIELD", "NAME", "TYPE", "LENGTH", "DATA ENC", "LEN ENC", "SENSITIVE"}
}

func (v fieldTableView) Rows() [][]string {
	rows := make([][]string, 0, len(v.fields))
	for _, f := range v.fields {
		length := strconv.Itoa(f.length)
		if f.lengthType != "fixed" {
			length = fmt.Sprintf("%s(%d)", f.lengthType, f.length)
		}
		rows = append(rows, []string{
			strconv.Itoa(f.number),
			f.name,
			f.fieldType,
			length,
			f.dataEncoding,
			f.lengthEncoding,
			cmdutil.BoolToYesNo(f.sensitive),
		})
	}
	return rows
}

func runFieldsGet(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	table, err := client.GetFieldTable(args[0])
	if err != nil {
		return fmt.Errorf("failed to get field table: %w", err)
	}

	view := fieldTableView{}
	for _, f := range table.Fields {
		view.fields = append(view.fields, fieldRow{
			number:         f.Number,
			name:           f.Name,
			fieldType:      f.Type,
			lengthType:     f.LengthType,
			length:         f.Length,
			dataEncoding:   f.DataEncoding,
			lengthEncoding: f.LengthEncoding,
			sensitive:      f.Sensitive,
		})
	}

	return cmdutil.PrintResource(os.Stdout, table, view)
}

func runFieldsReload(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetAuthenticatedClient()
	if err != nil {
		return err
	}

	result, err := client.ReloadFieldTable(args[0])
	if err != nil {
		return fmt.Errorf("failed to reload field table: %w", err)
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}
	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, result)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, result)
	default:
		cmdutil.PrintSuccess(fmt.Sprintf("Field table '%s' reloaded (%d fields)", result.Provider, result.Fields))
		return nil
	}
}
