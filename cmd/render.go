package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/bookshelf/internal/catalog"
	"github.com/lepinkainen/bookshelf/internal/fileutil"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func exportAll(books []catalog.Book) []catalog.ExportedBook {
	exported := make([]catalog.ExportedBook, 0, len(books))
	for _, b := range books {
		exported = append(exported, catalog.ToExported(b))
	}
	return exported
}

func encodeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

func renderBooks(out io.Writer, format string, books []catalog.Book) error {
	switch format {
	case formatJSON:
		return fileutil.EncodeJSON(out, exportAll(books))
	case formatYAML:
		return encodeYAML(out, exportAll(books))
	}

	if len(books) == 0 {
		_, err := fmt.Fprintln(out, metaStyle.Render("No books found"))
		return err
	}
	for _, b := range books {
		if _, err := fmt.Fprintln(out, bookLine(b)); err != nil {
			return err
		}
	}
	return nil
}

func renderBook(out io.Writer, format string, b catalog.Book) error {
	switch format {
	case formatJSON:
		return fileutil.EncodeJSON(out, catalog.ToExported(b))
	case formatYAML:
		return encodeYAML(out, catalog.ToExported(b))
	}

	lines := []string{bookLine(b)}
	if b.Genre != nil {
		lines = append(lines, metaStyle.Render("Genre:   ")+*b.Genre)
	}
	if b.Summary != nil {
		lines = append(lines, metaStyle.Render("Summary: ")+*b.Summary)
	}
	if b.CoverURL != nil {
		lines = append(lines, metaStyle.Render("Cover:   ")+*b.CoverURL)
	}
	source := b.Source
	if b.SourceURL != nil {
		source += " " + *b.SourceURL
	}
	lines = append(lines,
		metaStyle.Render("Source:  ")+source,
		metaStyle.Render("Parsed:  ")+b.ParsedAt.Format("2006-01-02 15:04:05"),
	)

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}

func bookLine(b catalog.Book) string {
	year := "n.d."
	if b.PublishYear != nil {
		year = strconv.Itoa(*b.PublishYear)
	}
	return fmt.Sprintf("%s %s %s %s",
		idStyle.Render(fmt.Sprintf("#%d", b.ID)),
		titleStyle.Render(b.Title),
		authorStyle.Render(b.Author),
		metaStyle.Render("("+year+")"),
	)
}

func renderGenres(out io.Writer, format string, genres []string) error {
	switch format {
	case formatJSON:
		return fileutil.EncodeJSON(out, genres)
	case formatYAML:
		return encodeYAML(out, genres)
	}
	for _, g := range genres {
		if _, err := fmt.Fprintln(out, g); err != nil {
			return err
		}
	}
	return nil
}
