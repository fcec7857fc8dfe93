package dialect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"tctasks/pkg/fileset"
)

const (
	SourceExt = ".s"
	OutputExt = ".src"
)

// DefaultHeader opens the code section the TASKING assembler expects.
var DefaultHeader = []string{
	"\t.sdecl \".text.code\",CODE",
	"\t.sect \".text.code\"",
	"\t.align 4",
}

// Converter rewrites generic backend assembly into the TASKING dialect.
type Converter struct {
	Header []string
	Rules  []Rule
}

// New returns a Converter using DefaultHeader and Rules.
func New() *Converter {
	return &Converter{Header: DefaultHeader, Rules: Rules()}
}

// Stats counts what happened to one file.
type Stats struct {
	Source       string
	Output       string
	LinesRead    int
	LinesWritten int // header excluded
	LinesDropped int
	Bytes        int64
}

// Summary aggregates the stats of a directory conversion.
type Summary struct {
	Files []Stats
}

func (s Summary) LinesRead() (n int) {
	for _, f := range s.Files {
		n += f.LinesRead
	}
	return n
}

func (s Summary) LinesWritten() (n int) {
	for _, f := range s.Files {
		n += f.LinesWritten
	}
	return n
}

func (s Summary) LinesDropped() (n int) {
	for _, f := range s.Files {
		n += f.LinesDropped
	}
	return n
}

func (s Summary) Bytes() (n int64) {
	for _, f := range s.Files {
		n += f.Bytes
	}
	return n
}

// ConvertLine runs line through the rules and returns the lines to emit, without newlines.
func (c *Converter) ConvertLine(line, stem string) []string {
	for _, rule := range c.Rules {
		out := rule.Apply(line, stem)
		switch out.Verdict {
		case Drop:
			return nil
		case Replace:
			return out.Lines
		}
		line = out.Line
	}

	line = strings.TrimRight(line, " \t\r\n\v\f")
	if line == "" {
		return nil
	}
	return []string{line}
}

// Convert writes the header and the converted lines of r to w.
func (c *Converter) Convert(r io.Reader, w io.Writer, stem string) (Stats, error) {
	var stats Stats
	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	for _, h := range c.Header {
		if _, err := bw.WriteString(h + "\n"); err != nil {
			return stats, err
		}
	}

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			stats.LinesRead++
			out := c.ConvertLine(line, stem)
			if len(out) == 0 {
				stats.LinesDropped++
			}
			for _, o := range out {
				if _, err := bw.WriteString(o + "\n"); err != nil {
					return stats, err
				}
				stats.LinesWritten++
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
	}

	if err := bw.Flush(); err != nil {
		return stats, err
	}
	stats.Bytes = cw.n
	return stats, nil
}

// ConvertFile converts the file at src into a new file at dst, replacing any existing one.
func (c *Converter) ConvertFile(src, dst string) (stats Stats, err error) {
	in, err := os.Open(src)
	if err != nil {
		return stats, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return stats, fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", dst, cerr)
		}
	}()

	stats, err = c.Convert(in, out, fileset.Stem(filepath.Base(src)))
	stats.Source, stats.Output = src, dst
	if err != nil {
		return stats, fmt.Errorf("failed to convert %s: %w", src, err)
	}
	return stats, nil
}

// ConvertDir recreates outDir and converts every source file in srcDir matched by filter.
// Files are converted one at a time in directory listing order; the first error ends the run.
func (c *Converter) ConvertDir(ctx context.Context, srcDir, outDir, filter string) (Summary, error) {
	var summary Summary

	names, err := List(srcDir, filter)
	if err != nil {
		return summary, err
	}

	if err := fileset.CheckOverlap(srcDir, outDir); err != nil {
		return summary, err
	}
	if err := fileset.Recreate(outDir); err != nil {
		return summary, err
	}

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		src := filepath.Join(srcDir, name)
		dst := filepath.Join(outDir, OutputName(name))

		stats, err := c.ConvertFile(src, dst)
		if err != nil {
			return summary, err
		}
		log.Debug("Converted file", "src", src, "dst", dst, "lines", stats.LinesWritten, "dropped", stats.LinesDropped)
		summary.Files = append(summary.Files, stats)
	}

	return summary, nil
}

// List returns the source files in srcDir selected by filter without converting them.
func List(srcDir, filter string) ([]string, error) {
	return fileset.Select(srcDir, SourceExt, filter)
}

// OutputName maps a source file name to its converted file name.
func OutputName(name string) string {
	return strings.TrimSuffix(name, SourceExt) + OutputExt
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
