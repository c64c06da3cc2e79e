package main

import (
	"context"
	"fmt"
	"os"

	"github.com/foliolegal/enrichcore/pkg/job"
)

// EnrichCmd runs the full pipeline against a single document and prints a
// one-line summary of the resulting job (id, status and result counts),
// plus the job's error message when it has one.
type EnrichCmd struct {
	Input    string `short:"i" required:"" help:"Path to the document to enrich." type:"path"`
	Format   string `help:"Document format override (text, pdf, html, markdown, word, rtf, email, table)."`
	Ontology string `help:"Path to the JSON ontology export (overrides config)." type:"path"`
}

func (c *EnrichCmd) Run(cli *CLI) error {
	ctx, cancel := withSignalCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx, cli.Config)
	if err != nil {
		return err
	}
	if c.Ontology != "" {
		cfg.Ontology.Path = c.Ontology
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	format := job.Format(c.Format)
	if format == "" {
		format = detectFormat(c.Input)
	}

	j := job.New(generateJobID(), job.Input{
		Content:  string(content),
		Format:   format,
		Filename: c.Input,
	})

	if err := a.Run(ctx, j); err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	fmt.Printf("job %s: status=%s annotations=%d individuals=%d properties=%d\n",
		j.ID, j.Status, len(j.Result.Annotations), len(j.Result.Individuals), len(j.Result.Properties))
	if j.ErrorMessage != "" {
		fmt.Printf("error: %s\n", j.ErrorMessage)
	}
	return nil
}
