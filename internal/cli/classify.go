package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/herald/internal/domain"
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify <type>...",
		Short: "Show the category each event type maps to",
		Args:  cobra.MinimumNArgs(1),
		Run:   runClassify,
	}

	RootCmd.AddCommand(cmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	if formatFlag == "json" {
		out := make(map[string]domain.Category, len(args))
		for _, typ := range args {
			out[typ] = domain.Classify(typ)
		}
		b, _ := json.MarshalIndent(out, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return
	}

	for _, typ := range args {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", typ, domain.Classify(typ))
	}
}
