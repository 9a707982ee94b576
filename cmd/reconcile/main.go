package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"geocapture/internal/config"
	"geocapture/internal/logger"
	"geocapture/internal/repository/sqlite"
	"geocapture/internal/service/reconcile"
	"geocapture/internal/service/storage"
)

func main() {
	prune := flag.Bool("prune", false, "Delete stored captures that have no metadata record")
	prefix := flag.String("prefix", "capture-", "Only consider objects whose name starts with this prefix")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	store, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.StorageBackend,
		Directory:   cfg.StorageDirectory,
		Bucket:      cfg.StorageBucket,
		BaseURL:     cfg.PublicBaseURL,
		Credentials: cfg.DriveCredentials,
		FolderID:    cfg.DriveFolderID,
	})
	if err != nil {
		log.Fatalf("Failed to open object store: %v", err)
	}

	if _, err := os.Stat(cfg.DBPath); err != nil {
		log.Fatalf("Database %s not found: %v", cfg.DBPath, err)
	}
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	orphans, err := reconcile.Unindexed(ctx, store, sqlite.NewMetadataRepository(db), *prefix)
	if err != nil {
		log.Fatalf("Reconcile failed: %v", err)
	}

	if len(orphans) == 0 {
		fmt.Println("✅ Every stored capture has a metadata record")
		return
	}

	for _, obj := range orphans {
		fmt.Printf("%s\t%d bytes\t%s\n", obj.Name, obj.Size, obj.Modified.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Found %d captures without metadata\n", len(orphans))

	if !*prune {
		return
	}

	removed := reconcile.Prune(ctx, store, orphans, logger.NewWriterLogger(os.Stderr))
	fmt.Printf("🗑️  Deleted %d of %d captures\n", removed, len(orphans))
}
