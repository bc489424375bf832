package util

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// ItemSpec is one item in an items file
type ItemSpec struct {
	ID       string   `yaml:"id"`
	Ordinal  int      `yaml:"ordinal"`
	Title    string   `yaml:"title"`
	MediaRef string   `yaml:"mediaRef"`
	Price    *float64 `yaml:"price"`
}

// itemsFile accepts either a bare list or an items key
type itemsFile struct {
	Items []ItemSpec `yaml:"items"`
}

// LoadItems reads items from a YAML or JSON file; "-" reads stdin
func LoadItems(path string, stdin io.Reader) ([]rotation.Item, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("error reading items: %w", err)
	}
	return ParseItems(data)
}

// ParseItems decodes an items document. Items without an id get one from
// their position.
func ParseItems(data []byte) ([]rotation.Item, error) {
	var specs []ItemSpec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		var file itemsFile
		if ferr := yaml.Unmarshal(data, &file); ferr != nil {
			return nil, fmt.Errorf("error parsing items: %w", ferr)
		}
		specs = file.Items
	}

	items := make([]rotation.Item, 0, len(specs))
	for i, s := range specs {
		if s.Ordinal < 0 {
			return nil, fmt.Errorf("item %d: ordinal must not be negative", i+1)
		}
		it := rotation.Item{
			ID:       s.ID,
			Ordinal:  s.Ordinal,
			Title:    s.Title,
			MediaRef: s.MediaRef,
		}
		if it.ID == "" {
			it.ID = fmt.Sprintf("item-%d", i+1)
		}
		if it.Title == "" {
			it.Title = it.ID
		}
		if s.Price != nil {
			payload, err := json.Marshal(map[string]float64{"price": *s.Price})
			if err != nil {
				return nil, err
			}
			it.Payload = payload
		}
		items = append(items, it)
	}
	return items, nil
}
