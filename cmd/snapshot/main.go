// snapshot exports the books to a JSON file or replaces them from one.
//
//	go run ./cmd/snapshot -export backup.json
//	go run ./cmd/snapshot -import backup.json -yes
//	go run ./cmd/snapshot -import gs:backups/roastery-2024-03-04.json -yes
//
// Import wipes every book table first. Stop the API before importing: a running
// server keeps its in-memory copy until restarted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/models"
	"github.com/mmdatafocus/roastery_backend/store"
	"github.com/mmdatafocus/roastery_backend/utils"
	"github.com/mmdatafocus/roastery_backend/workflow"
)

func main() {
	exportPath := flag.String("export", "", "write the snapshot to this file ('-' for stdout)")
	importPath := flag.String("import", "", "replace the books with this snapshot file; gs:<object> reads from GCS_BUCKET")
	yes := flag.Bool("yes", false, "confirm a destructive import")
	flag.Parse()

	if (*exportPath == "") == (*importPath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -export or -import is required")
		os.Exit(1)
	}
	if *importPath != "" && !*yes {
		fmt.Fprintln(os.Stderr, "import deletes every book table; rerun with -yes")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	if err := models.MigrateTable(db); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	logger := config.GetLogger()
	ctx := utils.SetCorrelationIdInContext(context.Background(), "snapshot-cli")
	books := workflow.NewBooks(store.NewGormStore(db, logger), logger)
	if err := books.Load(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "load books: %v\n", err)
		os.Exit(1)
	}

	if *exportPath != "" {
		data, err := json.MarshalIndent(books.Export(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
			os.Exit(1)
		}
		if strings.TrimSpace(*exportPath) == "-" {
			os.Stdout.Write(data)
			return
		}
		if err := os.WriteFile(*exportPath, data, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *exportPath, err)
			os.Exit(1)
		}
		fmt.Printf("exported to %s\n", *exportPath)
		return
	}

	data, err := readSnapshot(ctx, *importPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", *importPath, err)
		os.Exit(1)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", *importPath, err)
		os.Exit(1)
	}
	if err := books.Import(ctx, &snap); err != nil {
		fmt.Fprintf(os.Stderr, "import: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d stock items, %d parties, %d movements, %d ledger entries\n",
		len(snap.StockItems), len(snap.Parties), len(snap.Movements), len(snap.LedgerEntries))
}

func readSnapshot(ctx context.Context, path string) ([]byte, error) {
	if object, ok := strings.CutPrefix(path, "gs:"); ok {
		return utils.DownloadBytesFromGCS(ctx, object)
	}
	return os.ReadFile(path)
}
