package social

import (
	"time"

	domain "github.com/example/social-chat/domain/social"
)

// userRecord is a directory entry for an identity that has connected at
// least once.
type userRecord struct {
	ID        string    `gorm:"primarykey;size:64"`
	Name      string    `gorm:"size:100;not null"`
	Avatar    string    `gorm:"size:255"`
	CreatedAt time.Time `gorm:"not null"`
	LastSeen  time.Time `gorm:"not null"`
}

// TableName returns the table name for userRecord.
func (userRecord) TableName() string {
	return "users"
}

func (r userRecord) toDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		Name:      r.Name,
		Avatar:    r.Avatar,
		CreatedAt: r.CreatedAt,
		LastSeen:  r.LastSeen,
	}
}

// invitationRecord is a stored invitation. PairKey identifies the
// unordered pair of participants.
type invitationRecord struct {
	ID         string    `gorm:"primarykey;size:36"`
	FromUserID string    `gorm:"size:64;not null;index"`
	ToUserID   string    `gorm:"size:64;not null;index"`
	PairKey    string    `gorm:"size:130;not null;index"`
	Message    string    `gorm:"size:500"`
	Status     string    `gorm:"size:16;not null;index"`
	Timestamp  time.Time `gorm:"column:sent_at;not null"`
	UpdatedAt  time.Time
}

// TableName returns the table name for invitationRecord.
func (invitationRecord) TableName() string {
	return "invitations"
}

func newInvitationRecord(inv domain.Invitation) invitationRecord {
	return invitationRecord{
		ID:         inv.ID,
		FromUserID: inv.FromUserID,
		ToUserID:   inv.ToUserID,
		PairKey:    pairKey(inv.FromUserID, inv.ToUserID),
		Message:    inv.Message,
		Status:     string(inv.Status),
		Timestamp:  inv.Timestamp,
	}
}

func (r invitationRecord) toDomain() domain.Invitation {
	return domain.Invitation{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
		Message:    r.Message,
		Timestamp:  r.Timestamp,
		Status:     domain.InvitationStatus(r.Status),
	}
}

// friendshipRecord stores a friendship with UserID1 < UserID2.
type friendshipRecord struct {
	ID          string    `gorm:"primarykey;size:36"`
	UserID1     string    `gorm:"column:user_id1;size:64;not null;uniqueIndex:idx_friendship_pair"`
	UserID2     string    `gorm:"column:user_id2;size:64;not null;uniqueIndex:idx_friendship_pair"`
	InitiatedBy string    `gorm:"size:64;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for friendshipRecord.
func (friendshipRecord) TableName() string {
	return "friendships"
}

func (r friendshipRecord) toDomain() domain.Friendship {
	return domain.Friendship{
		ID:          r.ID,
		UserID1:     r.UserID1,
		UserID2:     r.UserID2,
		InitiatedBy: r.InitiatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

// models lists every table the social store migrates.
func models() []any {
	return []any{&userRecord{}, &invitationRecord{}, &friendshipRecord{}}
}

// orderedPair returns a and b in lexical order.
func orderedPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func pairKey(a, b string) string {
	first, second := orderedPair(a, b)
	return first + "|" + second
}
