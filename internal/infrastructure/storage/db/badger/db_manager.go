package dbbadger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"
	"github.com/timshannon/badgerhold/v4"
)

// DbManager holds the badgerhold store backing the sale record.
type DbManager struct {
	Store *badgerhold.Store
}

// NewDbManager opens (or creates if not exists) the badger store on disk.
// It expects a base data dir and an optional logger.
func NewDbManager(baseDbDir string, logger badger.Logger) (*DbManager, error) {
	saleDb, err := createDb(filepath.Join(baseDbDir, "sale"), logger)
	if err != nil {
		return nil, fmt.Errorf("opening sale db: %w", err)
	}

	return &DbManager{Store: saleDb}, nil
}

// Close releases the underlying badger store.
func (d *DbManager) Close() error {
	return d.Store.Close()
}

// JSONEncode is a custom JSON based encoder for badger
func JSONEncode(value interface{}) ([]byte, error) {
	var buff bytes.Buffer

	en := json.NewEncoder(&buff)

	err := en.Encode(value)
	if err != nil {
		return nil, err
	}

	return buff.Bytes(), nil
}

// JSONDecode is a custom JSON based decoder for badger
func JSONDecode(data []byte, value interface{}) error {
	var buff bytes.Buffer
	de := json.NewDecoder(&buff)

	_, err := buff.Write(data)
	if err != nil {
		return err
	}

	return de.Decode(value)
}

func createDb(dbDir string, logger badger.Logger) (db *badgerhold.Store, err error) {
	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	db, err = badgerhold.Open(badgerhold.Options{
		Encoder:          JSONEncode,
		Decoder:          JSONDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})

	return
}
