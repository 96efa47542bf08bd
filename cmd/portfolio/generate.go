package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <output-dir>",
		Short: "Write the validated content as normalized JSON",
		Long: `Validate the content documents and write the records the site would
serve to <output-dir>: projects.json, hero.json and profile.json.

Every record in the output satisfies the validation rules, so the files
can be fed back in unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir := args[0]
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return errors.Wrap(err, "failed to create output directory")
			}

			snap, err := a.newContent(nil).Build(cmd.Context())
			if err != nil {
				return err
			}

			files := []struct {
				name  string
				data  any
				count int
			}{
				{"projects.json", snap.Projects, len(snap.Projects)},
				{"hero.json", snap.Hero, 1},
				{"profile.json", snap.Profile, 1},
			}
			for _, f := range files {
				data, err := json.MarshalIndent(f.data, "", "  ")
				if err != nil {
					return errors.Wrapf(err, "marshal %s", f.name)
				}
				path := filepath.Join(outputDir, f.name)
				if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
					return errors.Wrapf(err, "write %s", path)
				}
				fmt.Fprintf(a.out, "Created %s (%d records)\n", path, f.count)
			}

			fmt.Fprintln(a.out, "Done!")
			return nil
		},
	}
}
