package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"dir2opus/internal/logging"
	"dir2opus/internal/media/audio"
	"dir2opus/internal/oggopus"
	"dir2opus/internal/tags"
)

func newTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "tags <file>",
		Short:       "Show the tags dir2opus reads from a source or finds in an .opus file",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out := cmd.OutOrStdout()

			if strings.EqualFold(filepath.Ext(path), ".opus") {
				fields, err := oggopus.ReadTags(path)
				if err != nil {
					return err
				}
				if len(fields) == 0 {
					fmt.Fprintln(out, "No tags found")
					return nil
				}
				fmt.Fprintln(out, "Format: opus (vorbis comments)")
				fmt.Fprintln(out, renderTagTable(fields))
				return nil
			}

			format, ok := audio.Detect(path)
			if !ok {
				return fmt.Errorf("%s: unsupported audio format", path)
			}
			logger, err := logging.New(logging.Options{
				Level:            "warn",
				Format:           "console",
				OutputPaths:      []string{"stderr"},
				ErrorOutputPaths: []string{"stderr"},
			})
			if err != nil {
				return err
			}
			mapping := tags.NewExtractor(logger).Extract(cmd.Context(), path, format)
			if len(mapping) == 0 {
				fmt.Fprintln(out, "No tags found")
				return nil
			}
			fmt.Fprintf(out, "Format: %s (%s tags)\n", format, dash(tags.Family(format)))
			fmt.Fprintln(out, renderTagTable(mapping))
			return nil
		},
	}
}

func renderTagTable(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var rows [][]string
	for _, key := range keys {
		for _, value := range fields[key] {
			rows = append(rows, []string{key, value})
		}
	}
	key := left("Key")
	key.merge = true
	return renderTable([]column{key, left("Value")}, rows)
}
