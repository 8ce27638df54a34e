package common

import (
	"github.com/ValentinKolb/davlock/lib/propstore"
	"sort"
)

// PropertyList converts a property map into a list sorted by namespace and local name
func PropertyList(props propstore.Properties) []Property {
	if len(props) == 0 {
		return nil
	}
	list := make([]Property, 0, len(props))
	for name, value := range props {
		list = append(list, Property{Name: name, Value: value})
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name.Space != list[j].Name.Space {
			return list[i].Name.Space < list[j].Name.Space
		}
		return list[i].Name.Local < list[j].Name.Local
	})
	return list
}

// PropertyMap converts a property list into a map, later entries win
func PropertyMap(list []Property) propstore.Properties {
	if len(list) == 0 {
		return nil
	}
	props := make(propstore.Properties, len(list))
	for _, prop := range list {
		props[prop.Name] = prop.Value
	}
	return props
}
