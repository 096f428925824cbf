package actions

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр действий.
//
// Единственная карта имя → действие обслуживает и объявление имён
// (Names), и разрешение (Get): действие, скрытое из списка, не может
// быть вызвано, и наоборот. Потокобезопасен.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// Register регистрирует действие.
// Действие с тем же именем перезаписывается.
func (r *Registry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.Name()] = a
}

// Get возвращает действие по имени.
// Возвращает ErrUnknownAction, если имя не зарегистрировано.
func (r *Registry) Get(name string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.actions[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return a, nil
}

// Execute разрешает действие по имени и выполняет его.
// Слой диспетчеризации для Runner и внешних вызовов.
func (r *Registry) Execute(ctx context.Context, name string, req *Request) (any, error) {
	a, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return a.Execute(ctx, req)
}

// Has проверяет, зарегистрировано ли действие.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.actions[name]
	return exists
}

// Names возвращает отсортированный список всех зарегистрированных
// имён действий. Это же множество резолвится через Get.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных действий.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Unregister удаляет действие из реестра.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, name)
}
