package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yungbote/lvflow-backend/internal/app"
)

func main() {
	var (
		offerName string
		pdfPath   string
		jsonDir   string
		initDB    bool
	)
	flag.StringVar(&offerName, "offer", "", "offer name (required)")
	flag.StringVar(&pdfPath, "pdf", "", "path of the PDF to ingest")
	flag.StringVar(&jsonDir, "json-dir", "", "directory holding product_groups.json / product_variants.json")
	flag.BoolVar(&initDB, "init-db", false, "create tables and unique indexes before ingesting")
	flag.Parse()

	if strings.TrimSpace(offerName) == "" || (pdfPath == "") == (jsonDir == "") {
		fmt.Println("usage: ingest_offer -offer NAME (-pdf FILE | -json-dir DIR) [-init-db]")
		os.Exit(2)
	}

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	application.Start(ctx)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		application.Close(closeCtx)
	}()

	if initDB {
		if err := application.Ingest.InitDB(ctx); err != nil {
			fail(application, "init db", err)
		}
	}

	var result any
	if pdfPath != "" {
		data, err := os.ReadFile(pdfPath)
		if err != nil {
			fail(application, "read pdf", err)
		}
		jobID := application.Jobs.Create()
		out, err := application.Ingest.RunPDF(ctx, jobID, offerName, data)
		if err != nil {
			fail(application, "ingest pdf", err)
		}
		result = out
	} else {
		counts, err := application.Ingest.IngestJSON(ctx, offerName, jsonDir)
		if err != nil {
			fail(application, "ingest json", err)
		}
		result = map[string]any{"inserted": counts}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

func fail(a *app.App, what string, err error) {
	a.Log.Error("ingest_offer failed", "step", what, "error", err)
	a.Log.Sync()
	fmt.Printf("%s: %v\n", what, err)
	os.Exit(1)
}
