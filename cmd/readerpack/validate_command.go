package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gradreader/readerpack/backend/pack"
	"github.com/gradreader/readerpack/core"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate <pack.zip>",
		Short:       "Verify the files of a reader pack against its manifest",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return core.WrapError(err, core.EMISSING, "cannot read %s", args[0])
			}
			m, err := pack.Verify(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pack %s: %s for %s speakers, level %s %s, %s mode, %s documents\n",
				m.PackID, m.LearningLanguage, m.NativeLanguage, m.LevelSchema, m.Level, m.Mode, m.Format)
			if len(m.Topics) > 0 {
				fmt.Fprintf(out, "Topics: %s\n", strings.Join(m.Topics, ", "))
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Story", "Document", "Page", "Audio"},
				storyRows(*m), []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight}))
			for _, w := range m.Warnings {
				pterm.Warning.Println(w.String())
			}
			pterm.Success.Printfln("%d files verified", len(m.Files))
			return nil
		},
	}
}
