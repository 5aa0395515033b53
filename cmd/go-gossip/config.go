package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dominant-strategies/go-gossip/cmd/utils"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "prints the effective configuration",
	Long: `prints every config parameter after merging flags, environment variables and
the config file in the location specified by the --config-dir flag.
With --save-config the result is also written back to the config file.`,
	RunE:                       runConfig,
	SilenceUsage:               true,
	SuggestionsMinimumDistance: 2,
	Example:                    `go-gossip config --save-config --max-peers=80`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	for _, flagGroup := range [][]utils.Flag{utils.NodeFlags, utils.TopicFlags, utils.MetricsFlags} {
		for _, flag := range flagGroup {
			utils.CreateAndBindFlag(flag, configCmd)
		}
	}
}

func runConfig(cmd *cobra.Command, args []string) error {
	renderConfig(os.Stdout, viper.AllSettings())
	return nil
}

// renderConfig writes the settings as a table sorted by key, nested
// settings flattened with dots
func renderConfig(w io.Writer, settings map[string]interface{}) {
	rows := flattenSettings("", settings, nil)
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Parameter", "Value"})
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.Render()
}

func flattenSettings(prefix string, settings map[string]interface{}, rows [][]string) [][]string {
	for key, value := range settings {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			rows = flattenSettings(key, nested, rows)
			continue
		}
		rows = append(rows, []string{key, fmt.Sprint(value)})
	}
	return rows
}
