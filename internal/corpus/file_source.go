package corpus

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileSource reads corpus documents from a directory tree, one subdirectory
// per document type (philosophies/, structures/, templates/), each file a
// single document. Grounded on HendryAvila-Hoofy/internal/changes/store.go's
// FileStore pattern of reading a flat directory of named records.
type FileSource struct {
	Root string
}

var docTypeSubdir = map[DocType]string{
	DocPhilosophy: "philosophies",
	DocStructure:  "structures",
	DocTemplate:   "templates",
}

// List reads every file under the document type's subdirectory, keyed by
// its path relative to Root.
func (f FileSource) List(docType DocType) (map[string]string, error) {
	subdir, ok := docTypeSubdir[docType]
	if !ok {
		return nil, fmt.Errorf("corpus: no subdirectory mapping for document type %q", docType)
	}
	dir := filepath.Join(f.Root, subdir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("corpus: reading %s: %w", dir, err)
	}

	out := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("corpus: reading %s: %w", path, err)
		}
		out[filepath.Join(subdir, entry.Name())] = string(raw)
	}
	return out, nil
}
