package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vmware/transport-docs/internal/highlight"
	"github.com/vmware/transport-docs/internal/progress"
	"github.com/vmware/transport-docs/internal/router"
	"github.com/vmware/transport-docs/internal/routes"
)

// missingPath is navigated to confirm the not-found fallback.
const missingPath = "transport-docs-check/missing"

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Mount every route and verify it highlights exactly once",
	Long: `Mounts each route of every section in a scratch router, fires two view
checkpoints and verifies that the highlighter ran once and left no raw code
blocks behind. Also confirms that an unknown path falls back to the
not-found page. Exits non-zero when any route fails.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

type checkResult struct {
	path    string
	page    string
	blocks  int
	calls   int64
	problem string
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	secs := sections(cfg)
	lib, err := loadLibrary(cfg, secs)
	if err != nil {
		return err
	}
	chroma, err := highlight.NewChroma(cfg.Highlight.Style)
	if err != nil {
		return err
	}
	counter := &highlight.Counter{Next: chroma}

	total := 0
	for _, sec := range secs {
		total += sec.table.Len() + 1
	}
	rep := progress.NewReporter("Checking pages")
	rep.Start(total)

	var results []checkResult
	for _, sec := range secs {
		r := newRouterFactory(cfg, sec, lib, counter, logger)("check")
		for _, e := range sec.table.Entries() {
			res := checkEntry(ctx, r, counter, sectionURL(sec, e.Path), e.Page)
			results = append(results, res)
			rep.Update(len(results), res.path)
		}

		missing := sectionURL(sec, missingPath)
		nf := checkResult{path: missing, page: routes.NotFoundPage}
		if inst, err := r.Navigate(ctx, missing); err != nil {
			nf.problem = err.Error()
		} else if inst.PageID() != routes.NotFoundPage {
			nf.problem = fmt.Sprintf("mounted %s", inst.PageID())
		}
		results = append(results, nf)
		rep.Update(len(results), missing)
		r.Close()
	}
	rep.Finish()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tPAGE\tBLOCKS\tCALLS\tSTATUS")
	failed := 0
	for _, res := range results {
		status := "ok"
		if res.problem != "" {
			status = "FAIL: " + res.problem
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", res.path, res.page, res.blocks, res.calls, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(results))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nAll %d checks passed (%d highlighter calls).\n", len(results), counter.Count())
	return nil
}

// checkEntry mounts url, fires two checkpoints and verifies the highlighter
// ran exactly once and left no raw code block.
func checkEntry(ctx context.Context, r *router.SectionRouter, counter *highlight.Counter, url, want string) checkResult {
	res := checkResult{path: url, page: want}
	before := counter.Count()

	inst, err := r.Navigate(ctx, url)
	if err != nil {
		res.problem = err.Error()
		return res
	}
	res.blocks = len(highlight.FindCodeBlocks(inst.Tree()))
	if inst.PageID() != want {
		res.problem = fmt.Sprintf("mounted %s", inst.PageID())
	}

	for range 2 {
		if _, err := r.ViewChecked(ctx); err != nil && res.problem == "" {
			res.problem = err.Error()
		}
	}
	res.calls = counter.Count() - before
	switch {
	case res.problem != "":
	case res.calls != 1:
		res.problem = fmt.Sprintf("highlighter ran %d times", res.calls)
	case len(highlight.FindCodeBlocks(inst.Tree())) != 0:
		res.problem = "code blocks left unhighlighted"
	}
	return res
}

// sectionURL joins a route segment onto the section's base path.
func sectionURL(sec section, segment string) string {
	if segment == "" {
		return sec.basePath
	}
	return sec.basePath + "/" + segment
}
