package partition

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/suteetoe/tenantstarter/internal/schema"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
)

// Memory tracks partitions and applied versions without a database. Steps
// are recorded but their Up functions are not run. Fail* hooks inject
// errors for a given partition name.
type Memory struct {
	mu           sync.Mutex
	publicSchema string
	schemas      map[string]map[int]bool

	FailCreate  map[string]error
	FailMigrate map[string]error
	FailDrop    map[string]error
}

// NewMemory creates an engine holding only the public partition
func NewMemory(publicSchema string) *Memory {
	if publicSchema == "" {
		publicSchema = "public"
	}
	return &Memory{
		publicSchema: publicSchema,
		schemas:      map[string]map[int]bool{publicSchema: {}},
		FailCreate:   map[string]error{},
		FailMigrate:  map[string]error{},
		FailDrop:     map[string]error{},
	}
}

func (m *Memory) CreateSchema(_ context.Context, name string, checkExists bool) error {
	if err := schema.Validate(name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailCreate[name]; err != nil {
		return err
	}
	if _, ok := m.schemas[name]; ok {
		if checkExists {
			return nil
		}
		return fmt.Errorf("create schema %s: already exists", name)
	}
	m.schemas[name] = map[int]bool{}
	return nil
}

func (m *Memory) SchemaExists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.schemas[name]
	return ok, nil
}

func (m *Memory) DropSchema(_ context.Context, name string) error {
	if name == m.publicSchema {
		return fmt.Errorf("%w: the public partition cannot be dropped", tenancy.ErrInvalidKey)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.FailDrop[name]; err != nil {
		return err
	}
	delete(m.schemas, name)
	return nil
}

func (m *Memory) Migrate(_ context.Context, name string, set Set) error {
	if err := checkSet(name, m.publicSchema, set); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	done, ok := m.schemas[name]
	if !ok {
		return fmt.Errorf("%w: %s", tenancy.ErrMissingPartition, name)
	}
	if err := m.FailMigrate[name]; err != nil {
		return err
	}
	for _, step := range pending(set, done) {
		done[step.Version] = true
	}
	return nil
}

func (m *Memory) Applied(_ context.Context, name string) ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	done, ok := m.schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tenancy.ErrMissingPartition, name)
	}
	versions := make([]int, 0, len(done))
	for v := range done {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions, nil
}

// Schemas lists every partition, public included
func (m *Memory) Schemas() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.schemas))
	for name := range m.schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
