package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/lepinkainen/bookshelf/internal/catalog"
	"github.com/lepinkainen/bookshelf/internal/config"
	"github.com/lepinkainen/bookshelf/internal/datastore"
)

// ExportCmd writes the catalog export and optionally publishes it
type ExportCmd struct {
	Output         string `short:"o" help:"Export file path, or - for stdout (defaults to export.path)"`
	DatasetteURL   string `name:"datasette-url" help:"Also publish rows to this Datasette instance"`
	DatasetteToken string `name:"datasette-token" help:"Bearer token for the Datasette insert API"`
}

func (e *ExportCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	output := e.Output
	if output == "" {
		output = cfg.Export.Path
	}

	var exported []catalog.ExportedBook
	if output == "-" {
		exported, err = store.ExportAll(ctx, out)
	} else {
		exported, err = store.ExportFile(ctx, output)
		if err == nil {
			_, err = fmt.Fprintf(out, "Exported %d books to %s\n", len(exported), output)
		}
	}
	if err != nil {
		return err
	}

	url, token := e.DatasetteURL, e.DatasetteToken
	if url == "" {
		url = cfg.Datasette.URL
	}
	if token == "" {
		token = cfg.Datasette.Token
	}
	if url == "" {
		return nil
	}
	return datastore.PublishBooks(ctx, datastore.NewDatasetteClient(url, token), exported)
}

// ImportCmd backfills the catalog from a JSON file
type ImportCmd struct {
	Input string `short:"i" help:"JSON file to import (defaults to import.path)"`
}

func (i *ImportCmd) Run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	input := i.Input
	if input == "" {
		input = cfg.Import.Path
	}

	result, err := store.ImportFile(ctx, input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "Imported %d books (%d duplicates, %d skipped)\n",
		result.Inserted, result.Duplicates, result.Skipped)
	return err
}
