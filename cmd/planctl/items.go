package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/xaenox/mindmesh/internal/models"
)

// itemsFile is either a bare list of items or a plan with an items list:
//
//	title: Launch
//	description: Ship the beta
//	items:
//	  - title: Write changelog
//	    priority: 4
type itemsFile struct {
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Items       []models.WorkItem `yaml:"items"`
}

func loadItems(path string) (*itemsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	f := &itemsFile{}
	if len(doc.Content) > 0 && doc.Content[0].Kind == yaml.SequenceNode {
		err = doc.Content[0].Decode(&f.Items)
	} else {
		err = doc.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if len(f.Items) == 0 {
		return nil, fmt.Errorf("%s has no items", path)
	}
	return f, nil
}
