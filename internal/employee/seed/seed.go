// Package seed reads employee records from YAML seed files.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"empverify/internal/employee/models"
)

// File is the top-level shape of a seed file:
//
//	employees:
//	  - employee_id: EMP006
//	    full_name: S. Sathish
//	    date_of_joining: "2019-04-01"
type File struct {
	Employees []models.Record `yaml:"employees"`
}

// Load decodes, normalizes and validates every record. Duplicate employee IDs
// are rejected so a seed run is deterministic.
func Load(r io.Reader) ([]models.Record, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	seen := make(map[string]int, len(f.Employees))
	for i := range f.Employees {
		rec := &f.Employees[i]
		rec.Normalize()
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("employee #%d (%s): %w", i+1, rec.EmployeeID, err)
		}
		if prev, dup := seen[rec.EmployeeID]; dup {
			return nil, fmt.Errorf("employee #%d duplicates #%d: %s", i+1, prev, rec.EmployeeID)
		}
		seen[rec.EmployeeID] = i + 1
	}
	return f.Employees, nil
}

func LoadFile(path string) ([]models.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}
