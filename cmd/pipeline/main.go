package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/csvio"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/logger"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/pipeline"
	"github.com/beatrizhernandezvaquerizasvl-beep/bigdata-storage-lab--Hernandez/internal/table"
)

func main() {
	log := logger.New()

	dateCol := flag.String("date-col", "fecha", "source column holding the transaction date")
	partnerCol := flag.String("partner-col", "cliente", "source column holding the partner")
	amountCol := flag.String("amount-col", "importe", "source column holding the amount")
	outDir := flag.String("out", ".", "directory to write bronze.csv, silver.csv and gold.csv to")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: pipeline [flags] file.csv [file.csv ...]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	mapping := pipeline.Mapping{
		DateColumn:    *dateCol,
		PartnerColumn: *partnerCol,
		AmountColumn:  *amountCol,
	}

	batches := make([]pipeline.RawBatch, 0, len(files))
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to open input file")
		}
		t, err := csvio.Read(f)
		f.Close()
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("Failed to parse CSV")
		}
		batches = append(batches, pipeline.RawBatch{SourceName: filepath.Base(path), Table: t})
	}

	validator := pipeline.NewValidator(log)
	state, err := pipeline.Run(ctx, validator, mapping, batches)
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingColumn) {
			writeTable(log, *outDir, "bronze.csv", state.Bronze)
			fmt.Println(pipeline.Summary(state.Errors))
			log.Fatal().Err(err).Msg("Bad column mapping; aggregation aborted")
		}
		log.Fatal().Err(err).Msg("Pipeline run failed")
	}

	fmt.Println(pipeline.Summary(state.Errors))
	fmt.Printf("Bronze records:   %d\n", state.Bronze.Len())
	fmt.Printf("Silver records:   %d\n", state.Silver.Len())
	fmt.Printf("Gold records:     %d\n", state.Gold.Len())
	fmt.Printf("Veracity score:   %.2f%%\n", state.Veracity)
	fmt.Printf("Total amount (€): %.2f\n", state.TotalAmount())

	writeTable(log, *outDir, "bronze.csv", state.Bronze)
	writeTable(log, *outDir, "silver.csv", state.Silver)
	writeTable(log, *outDir, "gold.csv", state.Gold)

	log.Info().Str("run_id", state.RunID).Str("out", *outDir).Msg("Run completed")
}

func writeTable(log zerolog.Logger, dir, name string, t *table.Table) {
	if t == nil {
		return
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to create output file")
	}
	defer f.Close()
	if err := csvio.Write(f, t); err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("Failed to write CSV")
	}
}
