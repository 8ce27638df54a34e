package filestore

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/davlock/lib/binenc"
	"github.com/ValentinKolb/davlock/lib/propstore"
	"sort"
)

// PropertyStore is a propstore.Store kept in a container file with the same
// load and write back behavior as LockStore.
type PropertyStore struct {
	*propstore.Store
	wb *writeBack
}

type propertyHooks struct {
	wb *writeBack
}

func (h *propertyHooks) OnChange(string) { h.wb.markDirty() }

// OpenPropertyStore opens (or creates) the property file at path and loads it
func OpenPropertyStore(path, name string, opts Options) (*PropertyStore, error) {
	file, err := openBackingFile(opts.fs(), path, PropertyMagic)
	if err != nil {
		return nil, err
	}

	loaded := make(map[string]propstore.Properties)
	err = file.load(func(r *binenc.Reader) error {
		res, err := propstore.DecodeResource(r)
		if err != nil {
			return err
		}
		if _, dup := loaded[res.Path]; dup {
			return fmt.Errorf("duplicate resource /%s", res.Path)
		}
		loaded[res.Path] = res.Props
		return nil
	})
	if err != nil {
		return nil, errors.Join(err, file.close())
	}

	hooks := &propertyHooks{}
	props := propstore.NewStore(hooks)
	if err := props.Restore(loaded); err != nil {
		return nil, errors.Join(fmt.Errorf("filestore: restoring properties from %s: %w", path, err), file.close())
	}

	store := &PropertyStore{Store: props}
	store.wb = newWriteBack("props/"+name, file, opts.WriteInterval, store.snapshotRecords)
	hooks.wb = store.wb

	Logger.Infof("[%s] loaded properties of %d resources from %s", name, len(loaded), path)
	return store, nil
}

func (s *PropertyStore) snapshotRecords() []record {
	snap := s.Store.Snapshot()

	paths := make([]string, 0, len(snap))
	for p := range snap {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	records := make([]record, len(paths))
	for i, p := range paths {
		records[i] = propstore.Resource{Path: p, Props: snap[p]}
	}
	return records
}

// Flush writes pending changes immediately
func (s *PropertyStore) Flush() error {
	return s.wb.flush()
}

// Pending reports whether changes are waiting to be written
func (s *PropertyStore) Pending() bool {
	return s.wb.isPending()
}

// Close disposes the property store, writes pending changes and closes the file
func (s *PropertyStore) Close() error {
	if err := s.Store.Close(); err != nil {
		return err
	}
	return s.wb.close()
}
