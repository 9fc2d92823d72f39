// Package store persists committed entities to a YAML record file.
//
// The store is the pipeline's persistence collaborator: it exposes Save,
// FindByID, and List over a single YAML file of records keyed by ID. Save
// enforces one schema-designated unique field across records; violating it
// returns [ErrDuplicate], the commit-time failure the pipeline surfaces as
// an entity-level rejection.
//
// Writes are atomic: the file is rewritten to a temp path and renamed over
// the original.
package store

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// DefaultStorePath is the record file location relative to the working
// directory when no explicit path is configured.
const DefaultStorePath = "formflow-store.yaml"

// Sentinel errors for store lookups and constraint checks.
var (
	// ErrNotFound indicates no record carries the requested ID.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates the record's unique field value collides with
	// an existing record. Surfaced at commit time only; step validation
	// cannot see other records.
	ErrDuplicate = errors.New("duplicate value for unique field")
)

// Record is one persisted entity.
type Record struct {
	// ID is the record's UUID.
	ID string `yaml:"id"`

	// Entity is the entity name from the form definition (e.g., "product").
	Entity string `yaml:"entity"`

	// Values holds the committed field values, nested associations included.
	Values map[string]any `yaml:"values"`
}

// storeFile is the on-disk shape of the record file.
type storeFile struct {
	Records []Record `yaml:"records"`
}

// Store reads and writes entity records.
//
// uniqueField names the field enforced unique across records; empty disables
// the check. Create instances with [New].
type Store struct {
	path        string
	uniqueField string
}

// New creates a [Store] backed by the YAML file at path.
func New(path, uniqueField string) *Store {
	if path == "" {
		path = DefaultStorePath
	}
	return &Store{path: path, uniqueField: uniqueField}
}

// NewID returns a fresh record ID.
func NewID() string {
	return uuid.NewString()
}

// Save writes the record, replacing any existing record with the same ID.
//
// Returns [ErrDuplicate] when another record already holds this record's
// unique field value. Any other failure is an I/O or encoding problem,
// wrapped with context.
func (s *Store) Save(rec *Record) error {
	if rec.ID == "" {
		return errors.New("record id must be set")
	}

	file, err := s.load()
	if err != nil {
		return err
	}

	if s.uniqueField != "" {
		value := cast.ToString(rec.Values[s.uniqueField])
		for _, existing := range file.Records {
			if existing.ID == rec.ID {
				continue
			}
			if value != "" && cast.ToString(existing.Values[s.uniqueField]) == value {
				return errors.Wrapf(ErrDuplicate, "%s %q", s.uniqueField, value)
			}
		}
	}

	replaced := false
	for i, existing := range file.Records {
		if existing.ID == rec.ID {
			file.Records[i] = *rec
			replaced = true
			break
		}
	}
	if !replaced {
		file.Records = append(file.Records, *rec)
	}

	return s.write(file)
}

// FindByID returns the record with the given ID.
// Returns [ErrNotFound] when no record matches.
func (s *Store) FindByID(id string) (*Record, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range file.Records {
		if file.Records[i].ID == id {
			rec := file.Records[i]
			return &rec, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "id %q", id)
}

// List returns all records in file order.
func (s *Store) List() ([]Record, error) {
	file, err := s.load()
	if err != nil {
		return nil, err
	}
	return file.Records, nil
}

func (s *Store) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &storeFile{}, nil
		}
		return nil, errors.Wrap(err, "unable to read store file")
	}

	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "unable to parse store file")
	}
	return &file, nil
}

func (s *Store) write(file *storeFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return errors.Wrap(err, "unable to marshal store file")
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return errors.Wrap(err, "unable to write store file")
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "unable to write store file")
	}
	return nil
}
