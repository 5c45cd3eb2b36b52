package social

import (
	"context"
	"errors"
	"fmt"
	"time"

	chatdomain "github.com/example/social-chat/domain/chat"
	domain "github.com/example/social-chat/domain/social"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrDuplicatePending   = errors.New("a pending invitation already exists between these users")
	ErrAlreadyTerminal    = errors.New("invitation has already been handled")
	ErrAlreadyFriends     = errors.New("users are already friends")
)

// Directory resolves logical identities to known users.
type Directory interface {
	FindUser(ctx context.Context, id string) (domain.User, error)
	UpsertUser(ctx context.Context, identity chatdomain.Identity, seen time.Time) error
}

// InvitationStore persists invitations and enforces their lifecycle.
type InvitationStore interface {
	CreateInvitation(ctx context.Context, inv domain.Invitation) error
	FindInvitation(ctx context.Context, id string) (domain.Invitation, error)
	ResolveInvitation(ctx context.Context, id string, status domain.InvitationStatus) (domain.Invitation, error)
	ListPending(ctx context.Context, userID string) ([]domain.Invitation, error)
}

// FriendshipStore persists friendships.
type FriendshipStore interface {
	AcceptInvitation(ctx context.Context, id string, friendship domain.Friendship) (domain.Invitation, domain.Friendship, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]domain.Friendship, error)
}

// Store is everything the social handlers need from persistence.
type Store interface {
	Directory
	InvitationStore
	FriendshipStore
}

var _ Store = (*Repository)(nil)

// Repository is the GORM implementation of Store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new social repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates or updates the social tables.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// FindUser retrieves a directory entry by id.
func (r *Repository) FindUser(ctx context.Context, id string) (domain.User, error) {
	var rec userRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return rec.toDomain(), nil
}

// UpsertUser records identity, refreshing name, avatar and last-seen time
// of an existing entry.
func (r *Repository) UpsertUser(ctx context.Context, identity chatdomain.Identity, seen time.Time) error {
	name := identity.Name
	if name == "" {
		name = identity.ID
	}
	rec := userRecord{
		ID:        identity.ID,
		Name:      name,
		Avatar:    identity.Avatar,
		CreatedAt: seen,
		LastSeen:  seen,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "avatar", "last_seen"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// CreateInvitation stores a pending invitation. It fails with
// ErrDuplicatePending when the pair already has one, in either direction.
func (r *Repository) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	rec := newInvitationRecord(inv)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&invitationRecord{}).
			Where("pair_key = ? AND status = ?", rec.PairKey, string(domain.StatusPending)).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check pending invitations: %w", err)
		}
		if count > 0 {
			return ErrDuplicatePending
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to create invitation: %w", err)
		}
		return nil
	})
}

// FindInvitation retrieves an invitation in any status.
func (r *Repository) FindInvitation(ctx context.Context, id string) (domain.Invitation, error) {
	rec, err := findInvitation(r.db.WithContext(ctx), id)
	if err != nil {
		return domain.Invitation{}, err
	}
	return rec.toDomain(), nil
}

// ResolveInvitation moves a pending invitation to a terminal status
// without creating a friendship.
func (r *Repository) ResolveInvitation(ctx context.Context, id string, status domain.InvitationStatus) (domain.Invitation, error) {
	if !status.IsTerminal() {
		return domain.Invitation{}, fmt.Errorf("cannot resolve invitation to %q", status)
	}
	var result domain.Invitation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findPending(tx, id)
		if err != nil {
			return err
		}
		if err := setStatus(tx, &rec, status); err != nil {
			return err
		}
		result = rec.toDomain()
		return nil
	})
	return result, err
}

// AcceptInvitation creates friendship for the pair of a pending invitation
// and marks the invitation accepted, atomically. An existing friendship
// leaves the invitation untouched and returns ErrAlreadyFriends.
func (r *Repository) AcceptInvitation(ctx context.Context, id string, friendship domain.Friendship) (domain.Invitation, domain.Friendship, error) {
	var (
		inv    domain.Invitation
		friend domain.Friendship
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findPending(tx, id)
		if err != nil {
			return err
		}
		first, second := orderedPair(rec.FromUserID, rec.ToUserID)
		exists, err := friendshipExists(tx, first, second)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyFriends
		}

		fr := friendshipRecord{
			ID:          friendship.ID,
			UserID1:     first,
			UserID2:     second,
			InitiatedBy: rec.FromUserID,
			CreatedAt:   friendship.CreatedAt,
		}
		if err := tx.Create(&fr).Error; err != nil {
			return fmt.Errorf("failed to create friendship: %w", err)
		}
		if err := setStatus(tx, &rec, domain.StatusAccepted); err != nil {
			return err
		}
		inv = rec.toDomain()
		friend = fr.toDomain()
		return nil
	})
	return inv, friend, err
}

// AreFriends reports whether a and b are friends.
func (r *Repository) AreFriends(ctx context.Context, a, b string) (bool, error) {
	first, second := orderedPair(a, b)
	return friendshipExists(r.db.WithContext(ctx), first, second)
}

// ListPending returns the pending invitations sent or received by userID,
// oldest first.
func (r *Repository) ListPending(ctx context.Context, userID string) ([]domain.Invitation, error) {
	var recs []invitationRecord
	if err := r.db.WithContext(ctx).
		Where("status = ? AND (from_user_id = ? OR to_user_id = ?)", string(domain.StatusPending), userID, userID).
		Order("sent_at ASC, id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	result := make([]domain.Invitation, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.toDomain())
	}
	return result, nil
}

// ListFriends returns every friendship userID is part of.
func (r *Repository) ListFriends(ctx context.Context, userID string) ([]domain.Friendship, error) {
	var recs []friendshipRecord
	if err := r.db.WithContext(ctx).
		Where("user_id1 = ? OR user_id2 = ?", userID, userID).
		Order("created_at ASC, id ASC").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	result := make([]domain.Friendship, 0, len(recs))
	for _, rec := range recs {
		result = append(result, rec.toDomain())
	}
	return result, nil
}

func findInvitation(db *gorm.DB, id string) (invitationRecord, error) {
	var rec invitationRecord
	if err := db.First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invitationRecord{}, ErrInvitationNotFound
		}
		return invitationRecord{}, fmt.Errorf("failed to find invitation: %w", err)
	}
	return rec, nil
}

func findPending(tx *gorm.DB, id string) (invitationRecord, error) {
	rec, err := findInvitation(tx, id)
	if err != nil {
		return invitationRecord{}, err
	}
	if domain.InvitationStatus(rec.Status).IsTerminal() {
		return invitationRecord{}, ErrAlreadyTerminal
	}
	return rec, nil
}

func setStatus(tx *gorm.DB, rec *invitationRecord, status domain.InvitationStatus) error {
	result := tx.Model(&invitationRecord{}).
		Where("id = ? AND status = ?", rec.ID, string(domain.StatusPending)).
		Update("status", string(status))
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyTerminal
	}
	rec.Status = string(status)
	return nil
}

func friendshipExists(db *gorm.DB, first, second string) (bool, error) {
	var count int64
	if err := db.Model(&friendshipRecord{}).
		Where("user_id1 = ? AND user_id2 = ?", first, second).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return count > 0, nil
}
