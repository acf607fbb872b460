// Package corpus loads the kiosk's knowledge files from disk. The
// scraper drops plain-text pages and JSON event listings into one
// directory; everything else is ignored.
package corpus

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odclabs/kiosk/internal/domain"
)

// Load reads every .txt and .json file under dir into a Document.
// Unreadable or malformed files are skipped with a warning so one bad
// scrape cannot block a rebuild. Documents come back sorted by path
// for deterministic indexing.
func Load(dir string) ([]domain.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("corpus directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus path %s is not a directory", dir)
	}

	var docs []domain.Document
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("corpus: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = d.Name()
		}

		var text string
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt":
			text, err = loadText(path)
		case ".json":
			text, err = loadJSON(path)
		default:
			return nil
		}
		if err != nil {
			log.Printf("corpus: skipping %s: %v", rel, err)
			return nil
		}
		if strings.TrimSpace(text) == "" {
			log.Printf("corpus: skipping empty file %s", rel)
			return nil
		}

		docs = append(docs, domain.Document{
			ID:         filepath.ToSlash(rel),
			SourcePath: path,
			RawText:    text,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func loadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// loadJSON renders a scraped JSON file as readable text. The scraper
// emits either a single record or a list of records; each record's
// fields become "key: value" lines and records are separated by blank
// lines so the chunker can break between them.
func loadJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		var single map[string]any
		if err := json.Unmarshal(data, &single); err != nil {
			return "", fmt.Errorf("not a JSON record or list of records: %w", err)
		}
		records = []map[string]any{single}
	}

	var b strings.Builder
	for i, rec := range records {
		if i > 0 {
			b.WriteString("\n\n")
		}
		writeRecord(&b, rec)
	}
	return b.String(), nil
}

func writeRecord(b *strings.Builder, rec map[string]any) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := rec[k]
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
			fmt.Fprintf(b, "%s: %s\n", k, val)
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			fmt.Fprintf(b, "%s: %s\n", k, strings.Join(parts, ", "))
		default:
			fmt.Fprintf(b, "%s: %v\n", k, val)
		}
	}
}
