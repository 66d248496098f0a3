package storage

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/net/publicsuffix"
)

// Storage wraps the labelled page folder.
type Storage struct {
	Folder string
}

// NewStorage creates a Storage for the given data folder.
func NewStorage(folder string) *Storage {
	return &Storage{Folder: folder}
}

// configJSON is the structure of the optional config.json.
type configJSON struct {
	Classes     []string          `json:"classes"`
	NAValue     string            `json:"NA_value"`
	SkipValue   string            `json:"skip_value"`
	SimplifyMap map[string]string `json:"simplify_map"`
}

// indexEntry represents a single entry in index.json.
type indexEntry struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// GetSchema reads config.json. A missing file yields an empty schema.
func (s *Storage) GetSchema() (*LabelSchema, error) {
	data, err := os.ReadFile(filepath.Join(s.Folder, "config.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return &LabelSchema{SimplifyMap: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	var config configJSON
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	if config.SimplifyMap == nil {
		config.SimplifyMap = map[string]string{}
	}
	return &LabelSchema{
		Classes:     config.Classes,
		NAValue:     config.NAValue,
		SkipValue:   config.SkipValue,
		SimplifyMap: config.SimplifyMap,
	}, nil
}

// GetIndex reads the index file.
func (s *Storage) GetIndex() (map[string]indexEntry, error) {
	data, err := os.ReadFile(filepath.Join(s.Folder, "index.json"))
	if err != nil {
		return nil, err
	}
	var index map[string]indexEntry
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	return index, nil
}

// IterSamples returns the labelled pages of the storage, ordered by domain then path.
func (s *Storage) IterSamples(opts IterOptions) ([]Sample, error) {
	schema, err := s.GetSchema()
	if err != nil {
		return nil, fmt.Errorf("get schema: %w", err)
	}
	index, err := s.GetIndex()
	if err != nil {
		return nil, fmt.Errorf("get index: %w", err)
	}

	paths := lo.Keys(index)
	sort.Slice(paths, func(i, j int) bool {
		di := GetDomain(index[paths[i]].URL)
		dj := GetDomain(index[paths[j]].URL)
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})

	seen := make(map[string]bool)
	var samples []Sample

	for _, path := range paths {
		entry := index[path]

		label := entry.Label
		if opts.SimplifyLabels {
			if simplified, ok := schema.SimplifyMap[label]; ok {
				label = simplified
			}
		}
		if opts.DropNA && (label == "" || label == schema.NAValue) {
			continue
		}
		if opts.DropSkipped && schema.SkipValue != "" && label == schema.SkipValue {
			continue
		}

		htmlData, err := os.ReadFile(filepath.Join(s.Folder, path))
		if err != nil {
			slog.Warn("Cannot read page file", "path", path, "error", err)
			continue
		}

		// Deduplication by page content hash
		if opts.DropDuplicates {
			hash := fmt.Sprintf("%x", md5.Sum(htmlData))
			if seen[hash] {
				if opts.Verbose {
					slog.Debug("Skipping duplicate page", "path", path)
				}
				continue
			}
			seen[hash] = true
		}

		samples = append(samples, Sample{
			Path:     path,
			URL:      entry.URL,
			Label:    label,
			RawLabel: entry.Label,
			HTML:     string(htmlData),
		})
	}

	return samples, nil
}

// IterOptions controls sample iteration behavior.
type IterOptions struct {
	DropDuplicates bool
	DropNA         bool
	DropSkipped    bool
	SimplifyLabels bool
	Verbose        bool
}

// DefaultIterOptions returns the default options for iterating samples.
func DefaultIterOptions() IterOptions {
	return IterOptions{
		DropDuplicates: true,
		DropNA:         true,
		DropSkipped:    true,
		SimplifyLabels: true,
	}
}

// Labels returns the distinct labels of samples in ascending order.
func Labels(samples []Sample) []string {
	labels := lo.Uniq(lo.Map(samples, func(s Sample, _ int) string { return s.Label }))
	sort.Strings(labels)
	return labels
}

// GetDomain extracts the domain name from a URL (for grouping samples by site).
func GetDomain(rawURL string) string {
	host := rawURL
	if idx := strings.Index(host, "://"); idx >= 0 {
		host = host[idx+3:]
	}
	if idx := strings.Index(host, "/"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}

	// Use publicsuffix to find the eTLD+1, then keep only the name part
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	if idx := strings.Index(domain, "."); idx >= 0 {
		return domain[:idx]
	}
	return domain
}
