package platform

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/jacentio/synarchive/document"
	"github.com/jacentio/synarchive/document/dynamo"
	"github.com/jacentio/synarchive/document/memory"
	"github.com/jacentio/synarchive/document/sqlite"
)

// StorageDriver identifies a concrete document store implementation.
type StorageDriver string

const (
	StorageMemory StorageDriver = "memory" // in-memory only (tests / ephemeral)
	StorageSQLite StorageDriver = "sqlite" // embedded sqlite file
	StorageDynamo StorageDriver = "dynamo" // DynamoDB tables
)

// OpenDocumentStore selects a backend using environment variables and wraps
// it with operation metrics. Defaults to memory when unset.
//
//	SYNARCHIVE_STORAGE_DRIVER: memory|sqlite|dynamo (default memory)
//	SYNARCHIVE_SQLITE_PATH: path to sqlite file (default ./synarchive.db)
//	SYNARCHIVE_TABLE_PREFIX: DynamoDB table name prefix when driver=dynamo
func OpenDocumentStore(ctx context.Context) (document.Store, error) {
	driver := os.Getenv("SYNARCHIVE_STORAGE_DRIVER")
	if driver == "" {
		driver = string(StorageMemory)
	}

	switch StorageDriver(driver) {
	case StorageMemory:
		return document.Instrument(memory.New()), nil

	case StorageSQLite:
		path := os.Getenv("SYNARCHIVE_SQLITE_PATH")
		if path == "" {
			path = "./synarchive.db"
		}
		store, err := sqlite.New(path)
		if err != nil {
			return nil, err
		}
		return document.Instrument(store), nil

	case StorageDynamo:
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(cfg)
		return document.Instrument(dynamo.New(client, dynamo.Config{
			TablePrefix: os.Getenv("SYNARCHIVE_TABLE_PREFIX"),
		})), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
