package backend

import (
	"context"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
)

// BadgerDatastore persists artifact bytes in an embedded badger database.
type BadgerDatastore struct {
	db *badger.DB
}

// NewBadgerDatastore opens (or creates) a badger database in dir.
func NewBadgerDatastore(dir string) (*BadgerDatastore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open badger datastore in %s", dir)
	}

	return &BadgerDatastore{db: db}, nil
}

func (d *BadgerDatastore) Store(_ context.Context, taskID, name string, data []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(datastoreKey(taskID, name)), data)
	})
	if err != nil {
		return errors.Wrapf(err, "unable to store %s for task %s", name, taskID)
	}

	return nil
}

func (d *BadgerDatastore) Load(_ context.Context, taskID, name string) ([]byte, error) {
	var data []byte

	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(datastoreKey(taskID, name)))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)

		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load %s for task %s", name, taskID)
	}

	return data, nil
}

func (d *BadgerDatastore) Close() error {
	return errors.Wrap(d.db.Close(), "unable to close badger datastore")
}

var _ Datastore = (*BadgerDatastore)(nil)
