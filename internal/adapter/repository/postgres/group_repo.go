package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/partio-backend/internal/domain"
)

// groupRepository implements domain.GroupRepository
type groupRepository struct {
	db *DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *DB) domain.GroupRepository {
	return &groupRepository{db: db}
}

// Create creates a new group
func (r *groupRepository) Create(ctx context.Context, group *domain.Group) error {
	query := `
		INSERT INTO expense_groups (id, name, description, currency, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.Currency,
		group.OwnerID,
		group.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("group %s: %w", group.ID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to create group: %w", err)
	}

	return nil
}

// GetByID retrieves a group by its ID
func (r *groupRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	query := `
		SELECT id, name, description, currency, owner_id, created_at
		FROM expense_groups
		WHERE id = $1
	`

	var group domain.Group
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.Currency,
		&group.OwnerID,
		&group.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get group by ID: %w", err)
	}

	return &group, nil
}

// ListByMember retrieves the groups a user is an active member of, newest first
func (r *groupRepository) ListByMember(ctx context.Context, userID string) ([]domain.Group, error) {
	query := `
		SELECT g.id, g.name, g.description, g.currency, g.owner_id, g.created_at
		FROM expense_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1 AND m.status = $2
		ORDER BY g.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID, string(domain.MemberStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query groups by member: %w", err)
	}
	defer rows.Close()

	groups := make([]domain.Group, 0)
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Currency, &g.OwnerID, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	return groups, nil
}

// Delete removes a group. Memberships, expenses and splits cascade.
func (r *groupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expense_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// AddMember adds a user to a group
func (r *groupRepository) AddMember(ctx context.Context, member *domain.GroupMember) error {
	query := `
		INSERT INTO group_members (group_id, user_id, name, email, role, status, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		member.GroupID,
		member.UserID,
		member.Name,
		member.Email,
		string(member.Role),
		string(member.Status),
		member.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member %s of group %s: %w", member.UserID, member.GroupID, domain.ErrConflict)
		}
		return fmt.Errorf("failed to add group member: %w", err)
	}

	return nil
}

// ListMembers retrieves the active members of a group in join order
func (r *groupRepository) ListMembers(ctx context.Context, groupID uuid.UUID) ([]domain.GroupMember, error) {
	query := `
		SELECT group_id, user_id, name, email, role, status, joined_at
		FROM group_members
		WHERE group_id = $1 AND status = $2
		ORDER BY joined_at ASC, user_id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, groupID, string(domain.MemberStatusActive))
	if err != nil {
		return nil, fmt.Errorf("failed to query group members: %w", err)
	}
	defer rows.Close()

	members := make([]domain.GroupMember, 0)
	for rows.Next() {
		var m domain.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Name, &m.Email, &m.Role, &m.Status, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating group members: %w", err)
	}

	return members, nil
}

// IsMember reports whether the user is an active member of the group
func (r *groupRepository) IsMember(ctx context.Context, groupID uuid.UUID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM group_members
			WHERE group_id = $1 AND user_id = $2 AND status = $3
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, groupID, userID, string(domain.MemberStatusActive)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check group membership: %w", err)
	}

	return exists, nil
}
