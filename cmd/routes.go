package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the documentation route tables",
	RunE:  runRoutes,
}

func init() {
	routesCmd.Flags().Bool("json", false, "output routes as JSON")
	rootCmd.AddCommand(routesCmd)
}

type routeRow struct {
	Section string `json:"section"`
	URL     string `json:"url"`
	Page    string `json:"page"`
	Title   string `json:"title"`
}

func runRoutes(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	secs := sections(cfg)
	lib, err := loadLibrary(cfg, secs)
	if err != nil {
		return err
	}

	var rows []routeRow
	for _, sec := range secs {
		for _, e := range sec.table.Entries() {
			url := sec.basePath
			if e.Path != "" {
				url += "/" + e.Path
			}
			rows = append(rows, routeRow{Section: sec.name, URL: url, Page: e.Page, Title: lib.Title(e.Page)})
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tSECTION\tPAGE\tTITLE")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.URL, r.Section, r.Page, r.Title)
	}
	return w.Flush()
}
