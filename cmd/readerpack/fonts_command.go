package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/core/font/catalog"
	"github.com/gradreader/readerpack/core/font/discover"
	"github.com/gradreader/readerpack/core/font/fontindex"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
)

func newFontsCommand(ctx *commandContext) *cobra.Command {
	var system []string
	var pattern, script string
	cmd := &cobra.Command{
		Use:   "fonts",
		Short: "List the fonts of the font index",
		Long: `List the fonts of the font index, in order of preference.
With --system, list font files installed on this system instead.
With --catalog or --script, list font families of the Google Fonts catalog,
which may be added to fonts.catalog.families of the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("system") {
				descs := discover.SystemFonts(system...)
				rows := make([][]string, 0, len(descs))
				for _, d := range descs {
					rows = append(rows, []string{d.Family, d.Path})
				}
				fmt.Fprintln(out, renderTable([]string{"Family", "Path"}, rows, nil))
				return nil
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if pattern != "" || script != "" {
				cat, err := cfg.Catalog()
				if err != nil {
					return err
				}
				families, err := catalogFonts(cmd, cat, pattern, script)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderTable([]string{"Family", "Variants", "Subsets"},
					catalogRows(families), nil))
				pterm.Info.Printfln("%s families", humanize.Comma(int64(len(families))))
				return nil
			}
			index, err := cfg.FontIndex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Family", "Style", "Origin", "Code points", "Scripts"},
				fontRows(index), []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight}))
			pterm.Info.Printfln("Fallback policy: %s", index.Policy())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&system, "system", nil, "List system fonts matching patterns")
	cmd.Flags().StringVar(&pattern, "catalog", "", "List catalog families matching a regular expression")
	cmd.Flags().StringVar(&script, "script", "", "List catalog families supporting a script, e.g. Cyrl")
	return cmd
}

func catalogFonts(cmd *cobra.Command, cat *catalog.Catalog, pattern, script string) ([]catalog.FontInfo, error) {
	if script == "" {
		return cat.Match(cmd.Context(), pattern)
	}
	scr, err := language.ParseScript(script)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "unknown script %q", script)
	}
	if _, ok := catalog.Subset(scr); !ok {
		return nil, core.Error(core.EINVALID, "the catalog has no subset for script %s", scr)
	}
	families, err := cat.ForScript(cmd.Context(), scr)
	if err != nil || pattern == "" {
		return families, err
	}
	matches, err := cat.Match(cmd.Context(), pattern)
	if err != nil {
		return nil, err
	}
	var both []catalog.FontInfo
	for _, m := range matches {
		for _, f := range families {
			if f.Family == m.Family {
				both = append(both, m)
				break
			}
		}
	}
	return both, nil
}

func catalogRows(families []catalog.FontInfo) [][]string {
	rows := make([][]string, 0, len(families))
	for _, f := range families {
		rows = append(rows, []string{f.Family, strings.Join(f.Variants, " "), strings.Join(f.Subsets, " ")})
	}
	return rows
}

func fontRows(index *fontindex.Index) [][]string {
	fonts := index.Fonts()
	rows := make([][]string, 0, len(fonts))
	for _, f := range fonts {
		scripts := make([]string, len(f.Scripts))
		for i, s := range f.Scripts {
			scripts[i] = s.String()
		}
		rows = append(rows, []string{string(f.ID), f.Name, f.StyleName(), f.Origin.String(),
			humanize.Comma(int64(f.Coverage.Size())), strings.Join(scripts, " ")})
	}
	return rows
}

func newCoverageCommand(ctx *commandContext) *cobra.Command {
	var file string
	var strict, interactive bool
	cmd := &cobra.Command{
		Use:   "coverage [text]",
		Short: "Check whether the fonts cover the scripts of a text",
		Long: `Check whether the fonts cover the scripts of a text.
With --interactive, read lines of text from the terminal until <ctrl>D.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case interactive:
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return core.WrapError(err, core.EMISSING, "cannot read %s", file)
				}
				text = string(data)
			case len(args) == 1:
				text = args[0]
			default:
				return core.Error(core.EINVALID, "coverage needs a text, --file or --interactive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			index, err := cfg.FontIndex(cmd.Context())
			if err != nil {
				return err
			}
			if interactive {
				return coverageREPL(cmd.OutOrStdout(), index)
			}
			if !printCoverage(cmd.OutOrStdout(), index, text) {
				if strict {
					return core.Error(core.EINVALID, "text is not fully covered by the configured fonts")
				}
				pterm.Warning.Println("Some code points are not covered and will be replaced or left unrendered.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read the text from a file")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail if the text is not fully covered")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Check lines typed at a prompt")
	return cmd
}

// printCoverage prints the coverage table of a text and tells whether
// the text is fully covered.
func printCoverage(out io.Writer, index *fontindex.Index, text string) bool {
	report := index.CoverageReport(text)
	fmt.Fprintln(out, renderTable([]string{"Script", "Covered", "Fonts", "Missing"},
		coverageRows(index, report), nil))
	return report.Complete()
}

func coverageREPL(out io.Writer, index *fontindex.Index) error {
	repl, err := readline.New("coverage > ")
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot open terminal")
	}
	defer repl.Close()
	pterm.Info.Println("Quit with <ctrl>D")
	for {
		line, err := repl.Readline()
		if errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt) {
			return nil
		} else if err != nil {
			return core.WrapError(err, core.EINTERNAL, "cannot read from terminal")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !printCoverage(out, index, line) {
			pterm.Warning.Println("not fully covered")
		}
	}
}

func coverageRows(index *fontindex.Index, report fontindex.Report) [][]string {
	scripts := report.Scripts()
	rows := make([][]string, 0, len(scripts))
	for _, scr := range scripts {
		c := report[scr]
		fonts := index.ScriptFonts(scr)
		ids := make([]string, len(fonts))
		for i, id := range fonts {
			ids[i] = string(id)
		}
		missing := make([]string, 0, len(c.Missing))
		for i, r := range c.Missing {
			if i == 8 {
				missing = append(missing, fmt.Sprintf("… (%d)", len(c.Missing)))
				break
			}
			missing = append(missing, fmt.Sprintf("U+%04X", r))
		}
		rows = append(rows, []string{scr.String(), yesNo(c.Covered), strings.Join(ids, " "),
			strings.Join(missing, " ")})
	}
	return rows
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
