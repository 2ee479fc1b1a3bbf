// Package stripdb stores rendered strips in a single SQLite archive, modelled on
// the MBTiles layout: a metadata table plus one gzip-compressed PNG per strip.
package stripdb

import (
	"errors"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/colorstrip/internal/stripkey"
)

// ErrNotFound is returned when a strip is not in the archive.
var ErrNotFound = errors.New("strip not found")

// Metadata contains archive metadata fields.
type Metadata struct {
	Name        string   // Human-readable archive name
	Format      string   // Strip data type, always png today
	Description string   // Human-readable description
	Version     string   // Version string
	Sizes       []string // "WIDTHxHEIGHT" entries the archive was built for
	Bases       []string // Base colors the archive was built for
	Scales      []int    // Device pixel ratios present
}

// Entry addresses one stored strip.
type Entry struct {
	Key   stripkey.Key
	Scale int
}

// ToMap converts Metadata to a map for database insertion.
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)

	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	if len(m.Sizes) > 0 {
		result["sizes"] = strings.Join(m.Sizes, ",")
	}
	if len(m.Bases) > 0 {
		result["bases"] = strings.Join(m.Bases, ",")
	}
	if len(m.Scales) > 0 {
		scales := make([]string, len(m.Scales))
		for i, s := range m.Scales {
			scales[i] = strconv.Itoa(s)
		}
		result["scales"] = strings.Join(scales, ",")
	}

	return result
}

// metadataFromMap is the inverse of ToMap. Unparseable scales are skipped.
func metadataFromMap(values map[string]string) Metadata {
	meta := Metadata{
		Name:        values["name"],
		Format:      values["format"],
		Description: values["description"],
		Version:     values["version"],
		Sizes:       splitList(values["sizes"]),
		Bases:       splitList(values["bases"]),
	}
	for _, s := range splitList(values["scales"]) {
		if i, err := strconv.Atoi(s); err == nil {
			meta.Scales = append(meta.Scales, i)
		}
	}
	return meta
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
