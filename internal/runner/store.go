package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/shaiso/Robota/internal/domain"
)

// ErrFlowNotFound — flow с таким именем отсутствует в хранилище.
var ErrFlowNotFound = errors.New("flow not found")

// Расширения документов flow в порядке поиска.
var flowExtensions = []string{".json", ".yaml", ".yml"}

// FlowState — состояние публикации flow.
type FlowState struct {
	// Published — flow опубликован.
	Published bool `json:"published"`

	// Approved — flow утверждён.
	Approved bool `json:"approved"`
}

// Store — файловое хранилище документов flow.
//
// Документы лежат в одной директории, по файлу на flow
// (<имя>.json или <имя>.yaml). Состояние публикации хранится
// рядом в state.json.
type Store struct {
	mu        sync.Mutex
	dir       string
	statePath string
	state     map[string]*FlowState
}

// NewStore открывает хранилище в директории dir, создавая её
// при необходимости.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create flows dir: %w", err)
	}

	s := &Store{
		dir:       dir,
		statePath: filepath.Join(dir, "state.json"),
		state:     make(map[string]*FlowState),
	}

	data, err := os.ReadFile(s.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read flow state: %w", err)
		}
		return s, nil
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("parse flow state: %w", err)
	}
	return s, nil
}

// List возвращает отсортированные имена всех flow в хранилище.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !isFlowExtension(ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if name == "state" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Load читает и парсит документ flow по имени.
func (s *Store) Load(name string) (*domain.Flow, error) {
	path, err := s.pathOf(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flow %s: %w", name, err)
	}
	flow, err := domain.ParseFlow(data)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", name, err)
	}
	return flow, nil
}

// Save записывает документ flow. Существующий файл перезаписывается
// в своём формате расположения; новый flow сохраняется как JSON.
func (s *Store) Save(flow *domain.Flow) error {
	name := flow.Name()
	if name == "" {
		return fmt.Errorf("save flow: %w", ErrFlowNotFound)
	}

	path, err := s.pathOf(name)
	if errors.Is(err, ErrFlowNotFound) {
		path = filepath.Join(s.dir, name+".json")
	} else if err != nil {
		return err
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("encode flow %s: %w", name, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write flow %s: %w", name, err)
	}
	return nil
}

// State возвращает состояние публикации flow.
func (s *Store) State(name string) FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.state[name]; ok {
		return *st
	}
	return FlowState{}
}

// SetPublished отмечает flow как опубликованный.
func (s *Store) SetPublished(name string) error {
	return s.updateState(name, func(st *FlowState) { st.Published = true })
}

// SetApproved отмечает flow как утверждённый.
func (s *Store) SetApproved(name string) error {
	return s.updateState(name, func(st *FlowState) { st.Approved = true })
}

// updateState изменяет состояние flow и сохраняет state.json.
func (s *Store) updateState(name string, change func(*FlowState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.state[name]
	if !ok {
		st = &FlowState{}
		s.state[name] = st
	}
	change(st)

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode flow state: %w", err)
	}
	if err := os.WriteFile(s.statePath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write flow state: %w", err)
	}
	return nil
}

// pathOf возвращает путь файла flow по имени.
func (s *Store) pathOf(name string) (string, error) {
	for _, ext := range flowExtensions {
		path := filepath.Join(s.dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrFlowNotFound, name)
}

func isFlowExtension(ext string) bool {
	for _, e := range flowExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
