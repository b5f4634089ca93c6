package memory

import (
	"github.com/vladislavdragonenkov/ams/internal/domain"
)

// sequenceRepositoryInMemory — счётчик идентификаторов аукционов поверх общего Store.
type sequenceRepositoryInMemory struct {
	store *Store
}

// NewSequenceRepository возвращает in-memory аллокатор идентификаторов.
// Счётчик стартует с нуля: первый аукцион получает ID 1.
func NewSequenceRepository(store *Store) domain.SequenceRepository {
	return &sequenceRepositoryInMemory{store: store}
}

// Next инкрементирует счётчик и возвращает новое значение.
func (r *sequenceRepositoryInMemory) Next() (uint64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.currentID++
	return r.store.currentID, nil
}

// Current возвращает идентификатор последнего стартовавшего аукциона.
func (r *sequenceRepositoryInMemory) Current() (uint64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.currentID, nil
}

var _ domain.SequenceRepository = (*sequenceRepositoryInMemory)(nil)
