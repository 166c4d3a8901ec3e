// stock-verify replays every stock item's movements and reports items whose
// stored quantity or average cost disagrees. Exits 2 when drift is found.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/store"
	"github.com/mmdatafocus/roastery_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	asJSON := flag.Bool("json", false, "print drift as JSON")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := logrus.New()

	books := workflow.NewBooks(store.NewGormStore(db, logger), logger)
	if err := books.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "load books: %v\n", err)
		os.Exit(1)
	}

	drift := books.VerifyStock()
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(drift)
	} else {
		for _, d := range drift {
			fmt.Printf("%s (%s): quantity %s stored, %s from movements; average %s stored, %s from movements\n",
				d.Name, d.StockItemId, d.StoredQuantity, d.DerivedQuantity, d.StoredAverage, d.DerivedAverage)
		}
		fmt.Printf("%d stock items checked, %d drifted\n", len(books.StockItems()), len(drift))
	}
	if len(drift) > 0 {
		os.Exit(2)
	}
}
