// Package settings persists per-instance action settings as one YAML document.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings is one instance's flat key-value record.
type Settings map[string]any

// Instance binds an action kind to its settings record.
type Instance struct {
	Action   string   `yaml:"action"`
	Settings Settings `yaml:"settings,omitempty"`
}

type document struct {
	Instances map[string]Instance `yaml:"instances"`
}

// Store is the YAML-backed instance table. It is read once and written wholesale on change.
type Store struct {
	path string

	mu        sync.Mutex
	instances map[string]Instance
}

// Open loads path; a missing file yields an empty store.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path is empty")
	}
	s := &Store{path: path, instances: map[string]Instance{}}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the backing file, replacing in-memory state.
func (s *Store) Reload() error {
	instances, err := readDocument(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.instances = instances
	s.mu.Unlock()
	return nil
}

// Get returns a copy of one instance.
func (s *Store) Get(id string) (Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return Instance{}, false
	}
	return inst.clone(), true
}

// IDs lists instance ids in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.instances))
	for id := range s.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Put replaces one instance and saves the document.
func (s *Store) Put(id string, inst Instance) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("instance id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[id] = inst.clone()
	return s.saveLocked()
}

// Update merges changes into one instance, creating it when missing, and saves.
// An empty action keeps the stored one; a nil value removes its key.
func (s *Store) Update(id string, action string, changes Settings) (Instance, error) {
	if strings.TrimSpace(id) == "" {
		return Instance{}, errors.New("instance id must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	inst := s.instances[id].clone()
	if action != "" {
		inst.Action = action
	}
	if inst.Action == "" {
		return Instance{}, fmt.Errorf("instance %q has no action", id)
	}
	if inst.Settings == nil {
		inst.Settings = Settings{}
	}
	for key, value := range changes {
		if value == nil {
			delete(inst.Settings, key)
			continue
		}
		inst.Settings[key] = value
	}
	s.instances[id] = inst
	if err := s.saveLocked(); err != nil {
		return Instance{}, err
	}
	return inst.clone(), nil
}

// Delete removes one instance and saves the document.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.instances[id]; !ok {
		return nil
	}
	delete(s.instances, id)
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{Instances: s.instances}); err != nil {
		return fmt.Errorf("encode settings yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode settings yaml: %w", err)
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

func readDocument(path string) (map[string]Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]Instance{}, nil
		}
		return nil, fmt.Errorf("read settings file %q: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Instance{}, nil
	}

	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode settings yaml %q: %w", path, err)
	}
	if doc.Instances == nil {
		doc.Instances = map[string]Instance{}
	}
	return doc.Instances, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

func (inst Instance) clone() Instance {
	out := Instance{Action: inst.Action}
	if inst.Settings != nil {
		out.Settings = make(Settings, len(inst.Settings))
		for key, value := range inst.Settings {
			out.Settings[key] = value
		}
	}
	return out
}

// String returns key as a string, or def when missing or not a scalar.
func (s Settings) String(key string, def string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case nil:
		return def
	case bool, int, int64, float64:
		return fmt.Sprint(v)
	default:
		return def
	}
}

// Bool returns key as a bool, or def.
func (s Settings) Bool(key string, def bool) bool {
	switch v := s[key].(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// Int returns key as an int, rounding floats, or def.
func (s Settings) Int(key string, def int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(math.Round(v))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// Float returns key as a float64, or def.
func (s Settings) Float(key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return def
		}
		return parsed
	default:
		return def
	}
}

// ParseValue decodes one command-line value as a YAML scalar so that
// `true`, `40`, and `0.5` keep their types.
func ParseValue(raw string) (any, error) {
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		return nil, fmt.Errorf("parse value %q: %w", raw, err)
	}
	switch value.(type) {
	case nil:
		return raw, nil
	case bool, int, int64, float64, string:
		return value, nil
	default:
		return nil, fmt.Errorf("value %q must be a scalar", raw)
	}
}

// ParseAssignments turns `key=value` pairs into a Settings record.
func ParseAssignments(pairs []string) (Settings, error) {
	out := Settings{}
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid assignment %q (want key=value)", pair)
		}
		value, err := ParseValue(raw)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}
