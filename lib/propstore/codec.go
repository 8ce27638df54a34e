package propstore

import (
	"fmt"
	"github.com/ValentinKolb/davlock/lib/binenc"
	"github.com/ValentinKolb/davlock/lib/davlock"
	"sort"
)

const resourceVersion byte = 0

// Resource is the persisted form of the properties of one path
type Resource struct {
	Path  string
	Props Properties
}

// EncodeTo writes the versioned binary encoding of the resource. Properties
// are written in a stable order (namespace, then local name).
//
//	byte(version) | string(path) | uvarint(count) | { string(local) | string(space) | blob(value) }*
func (res Resource) EncodeTo(w *binenc.Writer) {
	names := make([]davlock.QName, 0, len(res.Props))
	for name := range res.Props {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].Space != names[j].Space {
			return names[i].Space < names[j].Space
		}
		return names[i].Local < names[j].Local
	})

	w.Byte(resourceVersion)
	w.Str(res.Path)
	w.Uvarint(uint64(len(names)))
	for _, name := range names {
		w.Str(name.Local)
		w.Str(name.Space)
		w.Blob(res.Props[name])
	}
}

// DecodeResource reads a resource written by Resource.EncodeTo
func DecodeResource(r *binenc.Reader) (Resource, error) {
	var res Resource

	if version := r.Byte(); r.Err() == nil && version != resourceVersion {
		return res, fmt.Errorf("propstore: unsupported resource record version %d", version)
	}
	res.Path = r.Str()
	count := r.Uvarint()
	if err := r.Err(); err != nil {
		return res, err
	}
	if p, err := davlock.CanonicalPath(res.Path); err != nil || p != res.Path {
		return res, fmt.Errorf("propstore: resource record with invalid path %q", res.Path)
	}

	res.Props = make(Properties)
	for i := uint64(0); i < count; i++ {
		local := r.Str()
		space := r.Str()
		value := r.Blob()
		if err := r.Err(); err != nil {
			return res, err
		}
		name := davlock.QName{Space: space, Local: local}
		if _, dup := res.Props[name]; dup {
			return res, fmt.Errorf("propstore: duplicate property %s on /%s", name, res.Path)
		}
		res.Props[name] = value
	}
	return res, nil
}
