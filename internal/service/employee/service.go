package employee

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zhouzirui/staffbook/backend/internal/model/employee"
	"github.com/zhouzirui/staffbook/backend/internal/service/events"
)

var (
	ErrConflict = errors.New("employee id already exists")
	ErrNotFound = errors.New("employee not found")
)

// Publisher receives change notifications. *events.Hub satisfies it.
type Publisher interface {
	Publish(evt events.Event)
}

// Service applies CRUD semantics over a Store. Each operation holds mu for
// its whole read-modify-write cycle.
type Service struct {
	mu        sync.Mutex
	store     employee.Store
	publisher Publisher
}

// NewService wires the service to its store. publisher may be nil.
func NewService(store employee.Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Create appends record unless its id is already taken.
func (s *Service) Create(ctx context.Context, record employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Load(ctx)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("load employees: %w", err)
	}

	for _, existing := range records {
		if existing.ID == record.ID {
			return employee.Employee{}, ErrConflict
		}
	}

	if err := s.store.Append(ctx, record); err != nil {
		return employee.Employee{}, fmt.Errorf("append employee: %w", err)
	}

	s.publish(events.TypeCreated, record.ID, &record)
	return record, nil
}

// List returns the whole collection in file order.
func (s *Service) List(ctx context.Context) ([]employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	return records, nil
}

// Get looks up a single record by id.
func (s *Service) Get(ctx context.Context, id int) (employee.Employee, error) {
	records, err := s.List(ctx)
	if err != nil {
		return employee.Employee{}, err
	}
	for _, record := range records {
		if record.ID == id {
			return record, nil
		}
	}
	return employee.Employee{}, ErrNotFound
}

// Update replaces name, role and salary of the record with the given id.
// The id itself never changes; record.ID is ignored.
func (s *Service) Update(ctx context.Context, id int, record employee.Employee) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Load(ctx)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("load employees: %w", err)
	}

	found := -1
	for i := range records {
		if records[i].ID == id {
			found = i
			break
		}
	}
	if found < 0 {
		return employee.Employee{}, ErrNotFound
	}

	records[found].Name = record.Name
	records[found].Role = record.Role
	records[found].Salary = record.Salary

	if err := s.store.SaveAll(ctx, records); err != nil {
		return employee.Employee{}, fmt.Errorf("save employees: %w", err)
	}

	updated := records[found]
	s.publish(events.TypeUpdated, id, &updated)
	return updated, nil
}

// Delete removes the record with the given id.
func (s *Service) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load employees: %w", err)
	}

	kept := make([]employee.Employee, 0, len(records))
	for _, record := range records {
		if record.ID != id {
			kept = append(kept, record)
		}
	}
	if len(kept) == len(records) {
		return ErrNotFound
	}

	if err := s.store.SaveAll(ctx, kept); err != nil {
		return fmt.Errorf("save employees: %w", err)
	}

	s.publish(events.TypeDeleted, id, nil)
	return nil
}

func (s *Service) publish(kind events.Type, id int, record *employee.Employee) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(events.Event{Type: kind, EmployeeID: &id, Employee: record})
}
