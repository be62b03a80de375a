// Copyright (c) 2025 StratX21

package cmdutil

import (
	"context"
	"flag"
	"fmt"
	"path"

	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvhttp"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
)

// DBFlags selects the key-value database for a subcommand. With a data-dir
// the local badger database is opened directly; otherwise the running
// server's database is used over http.
type DBFlags struct {
	ClientFlags

	dbURLPath string

	dataDir string
}

func (f *DBFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "data-dir", "", "Path to the database directory")

	f.ClientFlags.SetFlags(fset)
	fset.StringVar(&f.dbURLPath, "db-url-path", "/db", "path to db api handler")
}

func (f *DBFlags) GetDatabase(ctx context.Context) (db kv.Database, closer func(), status error) {
	if len(f.dataDir) != 0 {
		bopts := badger.DefaultOptions(f.dataDir)
		bdb, err := badger.Open(bopts)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open the database: %w", err)
		}
		db := kvbadger.New(bdb, IsGoodDBKey)
		return db, func() { bdb.Close() }, nil
	}

	addrURL := f.ClientFlags.AddressURL()
	addrURL.Path = path.Join(addrURL.Path, f.dbURLPath)
	db = kvhttp.New(addrURL, f.ClientFlags.HttpClient())
	return db, func() {}, nil
}

// IsGoodDBKey restricts database keys to clean absolute paths.
func IsGoodDBKey(k string) bool {
	return path.IsAbs(k) && k == path.Clean(k)
}
