// Package accounts creates members together with their permission record.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hrdesk/internal/models"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrWeakPassword = errors.New("password must be between 8 and 72 bytes")
	ErrUnknownRole  = errors.New("unknown role")
	ErrInvalidInput = errors.New("invalid member input")
)

const (
	MinPasswordLen = 8
	// bcrypt refuses longer input.
	MaxPasswordLen = 72
)

// ValidatePassword reports ErrWeakPassword for passwords bcrypt cannot take
// or that are too short.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLen || len(pw) > MaxPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

type NewMember struct {
	OrgID      int64
	Email      string
	Name       string
	Password   string
	RoleSlug   string
	Status     models.MemberStatus
	Department string
	Position   string
	Phone      string
}

// Create inserts a member and its permission in one transaction.
func Create(ctx context.Context, db *gorm.DB, in NewMember) (*models.Member, error) {
	in.Email = NormalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || !strings.Contains(in.Email, "@") || in.OrgID == 0 {
		return nil, ErrInvalidInput
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	if in.RoleSlug == "" {
		in.RoleSlug = models.RoleEmployee
	}
	if in.Status == "" {
		in.Status = models.MemberActive
	}
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, in.Status)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	member := models.Member{
		Email:        in.Email,
		Name:         in.Name,
		Department:   strings.TrimSpace(in.Department),
		Position:     strings.TrimSpace(in.Position),
		Phone:        strings.TrimSpace(in.Phone),
		AuthProvider: "local",
		PasswordHash: hash,
	}
	member.OrgID = in.OrgID

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Member{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrEmailTaken
		}

		var role models.Role
		if err := tx.Where("org_id = ? AND slug = ?", in.OrgID, in.RoleSlug).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownRole, in.RoleSlug)
			}
			return err
		}

		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		perm := models.Permission{MemberID: member.ID, RoleID: role.ID, Status: in.Status}
		perm.OrgID = in.OrgID
		if err := tx.Create(&perm).Error; err != nil {
			return err
		}
		perm.Role = &role
		member.Permission = &perm
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// Load fetches a member with permission and role preloaded.
func Load(ctx context.Context, db *gorm.DB, orgID, memberID int64) (*models.Member, error) {
	var m models.Member
	err := db.WithContext(ctx).
		Preload("Permission.Role").
		Where("id = ? AND org_id = ?", memberID, orgID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func HashPassword(pw string) (string, error) {
	if len(pw) > MaxPasswordLen {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func NormalizeEmail(s string) string { return strings.TrimSpace(strings.ToLower(s)) }
