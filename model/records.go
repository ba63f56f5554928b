package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/siherrmann/lexgraph/helper"
	"gopkg.in/yaml.v3"
)

// NewArgumentRecordFromFile reads a plain text file as the text of an argument.
// Case, issue and parties are taken from template, the argument id defaults
// to the filename without extension.
func NewArgumentRecordFromFile(filePath string, template ArgumentRecord) (*ArgumentRecord, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	record := template
	record.Text = string(content)
	record.Segments = nil
	if record.ArgumentID == "" {
		filename := filepath.Base(filePath)
		record.ArgumentID = strings.TrimSuffix(filename, filepath.Ext(filename))
		if record.ArgumentID == "" {
			record.ArgumentID = filename
		}
	}

	return &record, nil
}

// LoadArgumentRecords reads records from a JSON or YAML file.
// The file holds either a single record or a list of records.
func LoadArgumentRecords(filePath string) ([]ArgumentRecord, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, helper.NewError("read records", err)
	}

	var records []ArgumentRecord
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		trimmed := bytes.TrimSpace(content)
		if len(trimmed) > 0 && trimmed[0] == '{' {
			record := ArgumentRecord{}
			err = json.Unmarshal(trimmed, &record)
			records = []ArgumentRecord{record}
		} else {
			err = json.Unmarshal(trimmed, &records)
		}
	case ".yaml", ".yml":
		node := yaml.Node{}
		if err = yaml.Unmarshal(content, &node); err == nil && len(node.Content) > 0 {
			if node.Content[0].Kind == yaml.MappingNode {
				record := ArgumentRecord{}
				err = node.Content[0].Decode(&record)
				records = []ArgumentRecord{record}
			} else {
				err = node.Content[0].Decode(&records)
			}
		}
	default:
		return nil, helper.NewError("read records", fmt.Errorf("%w: unsupported record file %s", helper.ErrValidation, filePath))
	}
	if err != nil {
		return nil, helper.NewError("decode records", fmt.Errorf("%w: %v", helper.ErrValidation, err))
	}

	if records == nil {
		records = []ArgumentRecord{}
	}
	return records, nil
}
