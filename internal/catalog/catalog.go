// Package catalog serves the embedded SUNAT reference catalogs used to
// render codes as human-readable descriptions.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

//go:embed data/*.json
var dataFS embed.FS

// Entry is one catalog row.
type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog names, matching the embedded files.
const (
	TipoDocumento = "tipo_documento"
	Monedas       = "monedas"
	Tributos      = "tributos"
	AfectacionIGV = "afectacion_igv"
	Unidades      = "unidades"
)

var (
	once     sync.Once
	catalogs map[string][]Entry
)

func load() {
	catalogs = map[string][]Entry{}
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded data unreadable: %v", err))
	}
	for _, f := range entries {
		raw, err := dataFS.ReadFile("data/" + f.Name())
		if err != nil {
			panic(fmt.Sprintf("catalog: read %s: %v", f.Name(), err))
		}
		var items []Entry
		if err := json.Unmarshal(raw, &items); err != nil {
			panic(fmt.Sprintf("catalog: decode %s: %v", f.Name(), err))
		}
		name := f.Name()[:len(f.Name())-len(".json")]
		catalogs[name] = items
	}
}

// Names lists the available catalogs in sorted order.
func Names() []string {
	once.Do(load)
	names := make([]string, 0, len(catalogs))
	for name := range catalogs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns every entry of a catalog.
func Lookup(name string) ([]Entry, error) {
	once.Do(load)
	items, ok := catalogs[name]
	if !ok {
		return nil, fmt.Errorf("unknown catalog %q", name)
	}
	return items, nil
}

// Describe resolves a code to its description, falling back to the code
// itself when the catalog doesn't know it.
func Describe(name, code string) string {
	items, err := Lookup(name)
	if err != nil {
		return code
	}
	for _, e := range items {
		if e.Code == code {
			return e.Name
		}
	}
	return code
}
