package contactgen

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

//go:embed starter/contacts.csv starter/template.html
var embeddedStarter embed.FS

// StarterFS exposes the sample contact list and template shipped with the
// module (contacts.csv and template.html at the root of the returned FS).
func StarterFS() fs.FS {
	sub, err := fs.Sub(embeddedStarter, "starter")
	if err != nil {
		return embeddedStarter
	}
	return sub
}

// WriteStarter copies the starter files into dir. Existing files are left
// untouched unless overwrite is set. It returns the paths it wrote.
func WriteStarter(dir string, overwrite bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("contactgen: create %s: %w", dir, err)
	}

	starter := StarterFS()
	entries, err := fs.ReadDir(starter, ".")
	if err != nil {
		return nil, fmt.Errorf("contactgen: list starter files: %w", err)
	}

	var written []string
	for _, entry := range entries {
		target := filepath.Join(dir, entry.Name())
		if !overwrite {
			if _, err := os.Stat(target); err == nil {
				continue
			}
		}
		data, err := fs.ReadFile(starter, entry.Name())
		if err != nil {
			return written, fmt.Errorf("contactgen: read starter %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return written, fmt.Errorf("contactgen: write %s: %w", target, err)
		}
		written = append(written, target)
	}
	return written, nil
}
