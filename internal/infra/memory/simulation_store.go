package memory

import (
	"context"
	"sync"

	"english-practice-service/internal/domain"
	"github.com/google/uuid"
)

// SimulationStore keeps simulations in a map keyed by id.
type SimulationStore struct {
	mu          sync.RWMutex
	simulations map[string]domain.Simulation
}

func NewSimulationStore() *SimulationStore {
	return &SimulationStore{simulations: make(map[string]domain.Simulation)}
}

func (s *SimulationStore) CreateSimulation(_ context.Context, sim domain.Simulation) (string, error) {
	if sim.ID == "" {
		sim.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulations[sim.ID] = sim
	return sim.ID, nil
}

func (s *SimulationStore) GetSimulation(_ context.Context, id string) (domain.Simulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sim, ok := s.simulations[id]
	if !ok {
		return domain.Simulation{}, domain.ErrSimulationNotFound
	}
	return sim, nil
}
