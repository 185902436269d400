// Package catalogs provides the embedded site profiles and component
// definitions for the Passport UI documentation sites.
package catalogs

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed docs install-site
var sitesFS embed.FS

// Site returns the embedded filesystem of a bundled site, rooted at the
// directory that holds its site.yaml.
func Site(name string) (fs.FS, error) {
	for _, known := range Names() {
		if known == name {
			return fs.Sub(sitesFS, name)
		}
	}
	return nil, fmt.Errorf("unknown bundled site %q (want one of %v)", name, Names())
}

// Names lists the bundled sites, sorted.
func Names() []string {
	entries, err := sitesFS.ReadDir(".")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
