package main

import (
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/config"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/render"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const DEFAULT_DELIMITER string = ","
const DEFAULT_PREFIX string = "es_fieldusage"
const DEFAULT_SUFFIX string = "csv"

// type reportOptions are the options shared by the stdout and file commands.
type reportOptions struct {
	show_report     bool
	show_accessed   bool
	show_unaccessed bool
	show_counts     bool
	delimiter       string
}

func (o *reportOptions) addFlags(fs *pflag.FlagSet, show_fields bool) {
	addToggle(fs, &o.show_report, "show-report", "hide-report", true, "Show a summary report")
	addToggle(fs, &o.show_accessed, "show-accessed", "hide-accessed", show_fields, "Show accessed fields")
	addToggle(fs, &o.show_unaccessed, "show-unaccessed", "hide-unaccessed", show_fields, "Show unaccessed fields")
	addToggle(fs, &o.show_counts, "show-counts", "hide-counts", show_fields, "Show field access counts")
	fs.StringVar(&o.delimiter, "delimiter", DEFAULT_DELIMITER, "Value delimiter if access counts are shown")
}

func newFieldUsage(cmd *cobra.Command, opts *globalOptions, pattern string) (*session, *fieldusage.FieldUsage, error) {

	ctx := cmd.Context()

	s, err := opts.connect(ctx, cmd.Flags())

	if err != nil {
		return nil, nil, err
	}

	fu, err := fieldusage.New(ctx, s.client, pattern, s.logger)

	if err != nil {
		return nil, nil, s.fatal("Exception encountered", err)
	}

	return s, fu, nil
}

// NewStdoutCmd returns the command that writes field usage information to the console.
func NewStdoutCmd(opts *globalOptions) *cobra.Command {

	report_opts := &reportOptions{}
	var show_headers bool

	cmd := &cobra.Command{
		Use:   "stdout [flags] SEARCH_PATTERN",
		Short: "Display field usage information on the console for SEARCH_PATTERN",
		Long: `Display field usage information on the console for SEARCH_PATTERN

This is powerful if you want to pipe the output through grep for only certain fields or patterns:

$ es-fieldusage stdout --hide-report --hide-headers --show-unaccessed 'index-*' | grep process`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			pattern := args[0]

			s, fu, err := newFieldUsage(cmd, opts, pattern)

			if err != nil {
				return err
			}

			defer s.logger.Sync()

			report, err := fu.Report(cmd.Context())

			if err != nil {
				return s.fatal("Unable to get report data", err)
			}

			wr := cmd.OutOrStdout()

			if report_opts.show_report {
				render.WriteSummary(wr, pattern, report)
			}

			if report_opts.show_accessed {

				render.WriteHeader(wr, "Accessed Fields (in descending frequency):", show_headers)

				err := render.WriteLines(wr, report.Accessed, report_opts.show_counts, report_opts.delimiter)

				if err != nil {
					return s.fatal("Unable to write accessed fields", err)
				}
			}

			if report_opts.show_unaccessed {

				render.WriteHeader(wr, "Unaccessed Fields", show_headers)

				err := render.WriteLines(wr, report.Unaccessed, report_opts.show_counts, report_opts.delimiter)

				if err != nil {
					return s.fatal("Unable to write unaccessed fields", err)
				}
			}

			return nil
		},
	}

	fs := cmd.Flags()
	report_opts.addFlags(fs, false)
	addToggle(fs, &show_headers, "show-headers", "hide-headers", true, "Show block headers for un|accessed fields")

	return cmd
}

// NewFileCmd returns the command that writes field usage information to one or more files.
func NewFileCmd(opts *globalOptions) *cobra.Command {

	report_opts := &reportOptions{}
	file_opts := &render.FileOptions{}

	var per_index bool

	cmd := &cobra.Command{
		Use:   "file [flags] SEARCH_PATTERN",
		Short: "Write field usage information to file for SEARCH_PATTERN",
		Long: `Write field usage information to file for SEARCH_PATTERN

When writing to file, the filename will be {prefix}-{INDEXNAME}.{suffix} where INDEXNAME will be the
name of the index if the --per-index option is used, or 'all_indices' if not.

This allows you to write to one file per index automatically, should that be your desire.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			pattern := args[0]
			ctx := cmd.Context()

			s, fu, err := newFieldUsage(cmd, opts, pattern)

			if err != nil {
				return err
			}

			defer s.logger.Sync()

			report, err := fu.Report(ctx)

			if err != nil {
				return s.fatal("Unable to get report data", err)
			}

			wr := cmd.OutOrStdout()

			if report_opts.show_report {
				render.WriteSummary(wr, pattern, report)
				fmt.Fprintln(wr)
			}

			sections := make([]render.Section, 0)

			if per_index {

				per_index_report, err := fu.PerIndexReport(ctx)

				if err != nil {
					return s.fatal("Unable to get per_index_report data", err)
				}

				for _, idx := range fu.Indices() {

					r := per_index_report[idx]

					sections = append(sections, render.Section{
						Name:       idx,
						Accessed:   r.Accessed,
						Unaccessed: r.Unaccessed,
					})
				}

			} else {

				sections = append(sections, render.Section{
					Name:       render.ALL_INDICES,
					Accessed:   report.Accessed,
					Unaccessed: report.Unaccessed,
				})
			}

			file_opts.ShowAccessed = report_opts.show_accessed
			file_opts.ShowUnaccessed = report_opts.show_unaccessed
			file_opts.ShowCounts = report_opts.show_counts
			file_opts.Delimiter = report_opts.delimiter

			files, err := render.WriteFiles(file_opts, sections)

			if err != nil {
				return s.fatal("Unable to write files", err)
			}

			render.WriteFilesSummary(wr, files)
			return nil
		},
	}

	fs := cmd.Flags()
	report_opts.addFlags(fs, true)
	addToggle(fs, &per_index, "per-index", "not-per-index", false, "Create one file per index found")
	fs.StringVar(&file_opts.FilePath, "filepath", config.DefaultFilePath(), "Path where files will be written")
	fs.StringVar(&file_opts.Prefix, "prefix", DEFAULT_PREFIX, "Filename prefix")
	fs.StringVar(&file_opts.Suffix, "suffix", DEFAULT_SUFFIX, "Filename suffix")

	return cmd
}

// NewShowIndicesCmd returns the command that lists the indices matching a search pattern.
func NewShowIndicesCmd(opts *globalOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:     "show_indices SEARCH_PATTERN",
		Aliases: []string{"show-indices"},
		Short:   "Show indices on the console matching SEARCH_PATTERN",
		Long: `Show indices on the console matching SEARCH_PATTERN

This is included as a way to ensure you are seeing the indices you expect before using the file or
stdout commands.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {

			pattern := args[0]
			ctx := cmd.Context()

			s, err := opts.connect(ctx, cmd.Flags())

			if err != nil {
				return err
			}

			defer s.logger.Sync()

			indices, err := fieldusage.CatIndexNames(ctx, s.client, pattern)

			if err != nil {
				return s.fatal("Exception encountered", err)
			}

			render.WriteIndices(cmd.OutOrStdout(), pattern, indices)
			return nil
		},
	}

	return cmd
}

// NewShowAllOptionsCmd returns the command that prints the help text of the root command with
// every hidden option revealed.
func NewShowAllOptionsCmd() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "show-all-options",
		Short: "Show all configuration options",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {

			root := cmd.Root()
			fs := root.PersistentFlags()

			for _, name := range hiddenFlags {

				f := fs.Lookup(name)

				if f != nil {
					f.Hidden = false
				}
			}

			return root.Help()
		},
	}

	return cmd
}
