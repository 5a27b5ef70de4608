package render

import (
	"bufio"
	"fmt"
	"github.com/sfomuseum/go-elasticsearch-fieldusage/fieldusage"
	"io"
	"os"
	"path/filepath"
)

// ALL_INDICES is the section name used when results are not written per index.
const ALL_INDICES string = "all_indices"

// type FileOptions defines where and how report files are written.
type FileOptions struct {
	FilePath       string
	Prefix         string
	Suffix         string
	ShowAccessed   bool
	ShowUnaccessed bool
	ShowCounts     bool
	Delimiter      string
}

// type Section is the data written to a single report file.
type Section struct {
	// Name is the index name, or ALL_INDICES.
	Name       string
	Accessed   fieldusage.Result
	Unaccessed fieldusage.Result
}

// Filename returns the name of the file written for section name.
func (opts *FileOptions) Filename(name string) string {
	return fmt.Sprintf("%s-%s.%s", opts.Prefix, name, opts.Suffix)
}

// WriteFiles writes one file per section in opts.FilePath and returns the names of the files
// written. When both accessed and unaccessed fields are enabled they are written to the same
// file, accessed first. If neither is enabled no files are written.
func WriteFiles(opts *FileOptions, sections []Section) ([]string, error) {

	written := make([]string, 0)

	if !opts.ShowAccessed && !opts.ShowUnaccessed {
		return written, nil
	}

	for _, s := range sections {

		fname := opts.Filename(s.Name)
		path := filepath.Join(opts.FilePath, fname)

		err := writeSection(path, opts, s)

		if err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}

		written = append(written, fname)
	}

	return written, nil
}

func writeSection(path string, opts *FileOptions, s Section) error {

	fh, err := os.Create(path)

	if err != nil {
		return err
	}

	wr := bufio.NewWriter(fh)

	if opts.ShowAccessed {

		err = WriteLines(wr, s.Accessed, opts.ShowCounts, opts.Delimiter)

		if err != nil {
			fh.Close()
			return err
		}
	}

	if opts.ShowUnaccessed {

		err = WriteLines(wr, s.Unaccessed, opts.ShowCounts, opts.Delimiter)

		if err != nil {
			fh.Close()
			return err
		}
	}

	err = wr.Flush()

	if err != nil {
		fh.Close()
		return err
	}

	return fh.Close()
}

// WriteFilesSummary writes the number of files written and up to MAX_LISTED of their names.
func WriteFilesSummary(wr io.Writer, files []string) {

	fmt.Fprint(wr, "Number of files written: ")
	bold.Fprintln(wr, len(files))

	fmt.Fprint(wr, "Filenames: ")

	if len(files) > MAX_LISTED {
		bold.Fprint(wr, formatList(files[0:MAX_LISTED]))
		fmt.Fprintln(wr, " ... (too many to show)")
		return
	}

	bold.Fprintln(wr, formatList(files))
}
