package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/simaogato/partio-backend/internal/domain"
)

// groupRepository implements domain.GroupRepository
type groupRepository struct {
	store *Store
}

// NewGroupRepository creates a new group repository over store
func NewGroupRepository(store *Store) domain.GroupRepository {
	return &groupRepository{store: store}
}

func (r *groupRepository) Create(_ context.Context, group *domain.Group) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[group.ID]; ok {
		return fmt.Errorf("group %s: %w", group.ID, domain.ErrConflict)
	}
	r.store.groups[group.ID] = *group
	return nil
}

func (r *groupRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	group, ok := r.store.groups[id]
	if !ok {
		return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}
	return &group, nil
}

func (r *groupRepository) ListByMember(_ context.Context, userID string) ([]domain.Group, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var groups []domain.Group
	for id, members := range r.store.members {
		for _, m := range members {
			if m.UserID == userID && m.Status == domain.MemberStatusActive {
				groups = append(groups, r.store.groups[id])
				break
			}
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CreatedAt.After(groups[j].CreatedAt)
	})

	return groups, nil
}

func (r *groupRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[id]; !ok {
		return fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}

	delete(r.store.groups, id)
	delete(r.store.members, id)
	for expenseID, e := range r.store.expenses {
		if e.GroupID == id {
			delete(r.store.expenses, expenseID)
		}
	}
	return nil
}

func (r *groupRepository) AddMember(_ context.Context, member *domain.GroupMember) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.groups[member.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", member.GroupID, domain.ErrNotFound)
	}

	for _, m := range r.store.members[member.GroupID] {
		if m.UserID == member.UserID {
			return fmt.Errorf("member %s: %w", member.UserID, domain.ErrConflict)
		}
	}

	r.store.members[member.GroupID] = append(r.store.members[member.GroupID], *member)
	return nil
}

func (r *groupRepository) ListMembers(_ context.Context, groupID uuid.UUID) ([]domain.GroupMember, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var members []domain.GroupMember
	for _, m := range r.store.members[groupID] {
		if m.Status == domain.MemberStatusActive {
			members = append(members, m)
		}
	}
	return members, nil
}

func (r *groupRepository) IsMember(_ context.Context, groupID uuid.UUID, userID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, m := range r.store.members[groupID] {
		if m.UserID == userID && m.Status == domain.MemberStatusActive {
			return true, nil
		}
	}
	return false, nil
}
