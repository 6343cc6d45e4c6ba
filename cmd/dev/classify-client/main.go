package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"

	"github.com/admitkit/docverify/internal/config"
	"github.com/admitkit/docverify/internal/enquiry"
	"github.com/admitkit/docverify/internal/extract"
)

// Manual check against a running Ollama instance: classify a document file
// and, when it lands in a real category, run the structured extraction too.
func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: classify-client [-config file] <document>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	provider, err := extract.NewOllamaProvider(cfg.Ollama)
	if err != nil {
		log.Fatal(err)
	}
	defer provider.Close()

	engine, err := extract.NewEngine(provider, cfg.Extract)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	doc := enquiry.NewDocument("dev", filepath.Base(path), mimeType, content)

	cat, err := engine.Classify(ctx, doc)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("category: %s\n", cat)

	if cat == enquiry.CategoryOther {
		return
	}
	doc.Category = cat
	draft, err := engine.Extract(ctx, doc)
	if err != nil {
		log.Fatal(err)
	}
	for name, c := range draft.Fields {
		fmt.Printf("%-24s %-8s score=%d value=%s\n", name, c.Label, c.Score, c.Value.String())
	}
	for i, exp := range draft.Experiences {
		fmt.Printf("experience[%d] company=%s title=%s duration=%s\n",
			i, exp.Company.Value.String(), exp.Title.Value.String(), exp.Duration.Value.String())
	}
}
