package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vsrfleet/inspection-backend/internal/config"
	"github.com/vsrfleet/inspection-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IdentityService owns the users table and the reconciliation logic that
// collapses the three identity creation paths (first login, admin
// pre-provisioning by email, first-admin bootstrap) onto one row per person.
type IdentityService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewIdentityService(db *gorm.DB, cfg *config.Config) *IdentityService {
	return &IdentityService{db: db, cfg: cfg}
}

// IsAdmin is the role gate backing every administrative operation.
func (s *IdentityService) IsAdmin(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND role = ?", id, models.RoleAdmin).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("admin check: %w", err)
	}
	return count > 0, nil
}

// requireAdmin fails with ErrForbidden for unknown ids as well as known
// non-admins, so callers cannot probe which ids exist.
func (s *IdentityService) requireAdmin(ctx context.Context, id string) error {
	ok, err := s.IsAdmin(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: admin privileges required", ErrForbidden)
	}
	return nil
}

// EnsureIdentity makes sure the caller has exactly one identity row, linked
// to their provider-issued id. It is best-effort by design: identity
// bookkeeping must never block the caller's primary action, so every
// failure here is logged and swallowed.
//
// When a real email is supplied and a row with that email exists under a
// different id, that row is a pre-provisioned identity for the same person:
// it is renamed to the provider id in place (keeping its role, so an admin
// grant made before first login survives) and all inspections it owns are
// re-pointed. Otherwise the call is an idempotent upsert keyed on the
// provider id, which only ever replaces a placeholder email.
func (s *IdentityService) EnsureIdentity(ctx context.Context, providerID, email string) {
	if providerID == "" {
		return
	}

	effectiveEmail := email
	if effectiveEmail == "" {
		effectiveEmail = PlaceholderEmail(providerID)
	}

	if email != "" {
		var existing models.User
		err := s.db.WithContext(ctx).
			Where("email = ? AND id <> ?", effectiveEmail, providerID).
			First(&existing).Error
		switch {
		case err == nil:
			// Rename and re-point in one transaction; a crash between the
			// two writes must not strand inspections on a dead id.
			txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				if err := tx.Model(&models.User{}).
					Where("id = ?", existing.ID).
					Update("id", providerID).Error; err != nil {
					return err
				}
				return tx.Model(&models.Inspection{}).
					Where("user_id = ?", existing.ID).
					Update("user_id", providerID).Error
			})
			if txErr != nil {
				slog.Error("identity relink failed",
					"action", "ensure_identity",
					"user_id", providerID,
					"previous_id", existing.ID,
					"error", txErr.Error())
				return
			}
			slog.Info("identity relinked to provider id",
				"user_id", providerID, "previous_id", existing.ID, "role", existing.Role)
			return
		case !errors.Is(err, gorm.ErrRecordNotFound):
			slog.Error("identity lookup failed",
				"action", "ensure_identity", "user_id", providerID, "error", err.Error())
			return
		}
	}

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}
	if email != "" {
		// Backfill a placeholder email with the real one; never overwrite
		// an email we already know.
		onConflict = clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"email": gorm.Expr(
					"CASE WHEN users.email LIKE ? THEN excluded.email ELSE users.email END",
					"%"+placeholderEmailSuffix),
			}),
		}
	}

	err := s.db.WithContext(ctx).Clauses(onConflict).Create(&models.User{
		ID:    providerID,
		Email: effectiveEmail,
		Role:  models.RoleUser,
	}).Error
	if err != nil {
		// A lost unique-email race lands here as a rejected insert.
		slog.Warn("identity upsert failed",
			"action", "ensure_identity", "user_id", providerID, "error", err.Error())
	}
}

// Outcomes of PromoteByEmail.
const (
	PromoteOutcomeCreated      = "created"
	PromoteOutcomeAlreadyAdmin = "already_admin"
	PromoteOutcomePromoted     = "promoted"
)

// PromoteByEmail grants the admin role to a person identified only by
// email. If no identity row exists yet, a synthesized one is created with
// role admin; the grant takes effect on their first login, when
// EnsureIdentity relinks the row to their provider id.
func (s *IdentityService) PromoteByEmail(ctx context.Context, actingAdminID, email string) (*models.User, string, error) {
	if actingAdminID == "" || email == "" {
		return nil, "", fmt.Errorf("%w: email and acting admin id are required", ErrInvalidRequest)
	}
	if err := s.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, "", err
	}

	var target models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&target).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user := models.User{
			ID:    SynthesizeID(email),
			Email: email,
			Role:  models.RoleAdmin,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return nil, "", fmt.Errorf("%w: a user with email %s already exists", ErrConflict, email)
			}
			return nil, "", fmt.Errorf("create pre-provisioned admin: %w", err)
		}
		slog.Info("pre-provisioned admin created", "user_id", user.ID, "email", email)
		return &user, PromoteOutcomeCreated, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("lookup user by email: %w", err)
	}

	if target.Role == models.RoleAdmin {
		return &target, PromoteOutcomeAlreadyAdmin, nil
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", target.ID).
		Update("role", models.RoleAdmin).Error; err != nil {
		return nil, "", fmt.Errorf("promote user: %w", err)
	}
	target.Role = models.RoleAdmin
	slog.Info("user promoted to admin", "user_id", target.ID, "email", email)
	return &target, PromoteOutcomePromoted, nil
}

// MergeResult reports what a duplicate-identity sweep did.
type MergeResult struct {
	Merged     int      `json:"merged"`
	Unresolved []string `json:"unresolved,omitempty"`
	Errors     []string `json:"errors,omitempty"`
}

// MergeDuplicateIdentities is batch remediation for duplicate rows created
// before reconciliation existed or by a lost race. Only the exact expected
// shape is merged: one provider-issued id plus one synthesized id sharing an
// email. Any other shape is reported unresolved rather than guessed at.
func (s *IdentityService) MergeDuplicateIdentities(ctx context.Context, actingAdminID string) (*MergeResult, error) {
	if err := s.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}

	dupEmails := s.db.Model(&models.User{}).
		Select("email").
		Where("email NOT LIKE ?", "%"+placeholderEmailSuffix).
		Group("email").
		Having("COUNT(*) > 1")

	var rows []models.User
	if err := s.db.WithContext(ctx).
		Where("email IN (?)", dupEmails).
		Order("email, id").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find duplicate identities: %w", err)
	}

	groups := make(map[string][]models.User)
	for _, row := range rows {
		groups[row.Email] = append(groups[row.Email], row)
	}

	result := &MergeResult{}
	for email, group := range groups {
		provider, synthesized, ok := splitDuplicatePair(group)
		if !ok {
			result.Unresolved = append(result.Unresolved, email)
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Admin grants land on the synthesized row first, so its role
			// wins.
			if err := tx.Model(&models.User{}).
				Where("id = ?", provider.ID).
				Update("role", synthesized.Role).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.Inspection{}).
				Where("user_id = ?", synthesized.ID).
				Update("user_id", provider.ID).Error; err != nil {
				return err
			}
			return tx.Delete(&models.User{}, "id = ?", synthesized.ID).Error
		})
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("merge %s: %v", email, err))
			continue
		}
		slog.Info("duplicate identities merged",
			"email", email, "kept", provider.ID, "removed", synthesized.ID)
		result.Merged++
	}
	return result, nil
}

// splitDuplicatePair returns the provider-shaped and synthesized-shaped rows
// iff the group is exactly one of each.
func splitDuplicatePair(group []models.User) (provider, synthesized models.User, ok bool) {
	if len(group) != 2 {
		return models.User{}, models.User{}, false
	}
	for _, u := range group {
		switch {
		case isProviderID(u.ID):
			provider = u
		case isSynthesizedID(u.ID):
			synthesized = u
		}
	}
	if provider.ID == "" || synthesized.ID == "" {
		return models.User{}, models.User{}, false
	}
	return provider, synthesized, true
}

// BootstrapFirstAdmin creates the very first admin. It exists only to
// escape the cold-start problem (no admin exists to promote the first one)
// and disables itself as soon as any admin row exists.
func (s *IdentityService) BootstrapFirstAdmin(ctx context.Context, providerID, email, secret string) (*models.User, error) {
	if providerID == "" || email == "" {
		return nil, fmt.Errorf("%w: user id and email are required", ErrInvalidRequest)
	}
	if s.cfg.AdminBootstrapSecret == "" || secret != s.cfg.AdminBootstrapSecret {
		return nil, fmt.Errorf("%w: invalid bootstrap secret", ErrForbidden)
	}

	var adminCount int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&adminCount).Error; err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	if adminCount > 0 {
		return nil, fmt.Errorf("%w: admin users already exist, bootstrap is only allowed when none do", ErrForbidden)
	}

	user := models.User{ID: providerID, Email: email, Role: models.RoleAdmin}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"email": email,
			"role":  models.RoleAdmin,
		}),
	}).Create(&user).Error
	if err != nil && isUniqueViolation(err) {
		// The id was free but the email is taken: adopt that row instead,
		// so bootstrap stays idempotent on either conflict.
		err = s.db.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", email).
			Updates(map[string]interface{}{"id": providerID, "role": models.RoleAdmin}).Error
	}
	if err != nil {
		return nil, fmt.Errorf("bootstrap first admin: %w", err)
	}

	slog.Info("first admin bootstrapped", "user_id", providerID, "email", email)
	return &user, nil
}

// UpdateUserRole changes a user's role. Admins cannot demote themselves;
// losing the last admin by accident would force another bootstrap.
func (s *IdentityService) UpdateUserRole(ctx context.Context, actingAdminID, targetID, newRole string) (*models.User, error) {
	if actingAdminID == "" || targetID == "" || newRole == "" {
		return nil, fmt.Errorf("%w: missing required parameters", ErrInvalidRequest)
	}
	if newRole != models.RoleUser && newRole != models.RoleAdmin {
		return nil, fmt.Errorf("%w: role must be 'user' or 'admin'", ErrInvalidRequest)
	}
	if err := s.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}

	var target models.User
	err := s.db.WithContext(ctx).First(&target, "id = ?", targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, targetID)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if actingAdminID == targetID && newRole != models.RoleAdmin {
		return nil, fmt.Errorf("%w: you cannot remove your own admin privileges", ErrInvalidRequest)
	}

	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", targetID).
		Update("role", newRole).Error; err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	target.Role = newRole
	return &target, nil
}

// UserRecord is a user row with its inspection count, for the admin user
// list.
type UserRecord struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"created_at"`
	InspectionCount int64     `json:"inspection_count"`
}

func (s *IdentityService) ListUsers(ctx context.Context, actingAdminID string) ([]UserRecord, error) {
	if err := s.requireAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}

	var records []UserRecord
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Select("users.id, users.email, users.role, users.created_at, COUNT(vehicle_inspections.id) AS inspection_count").
		Joins("LEFT JOIN vehicle_inspections ON vehicle_inspections.user_id = users.id").
		Group("users.id, users.email, users.role, users.created_at").
		Order("users.created_at DESC").
		Scan(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return records, nil
}

// AdminStatus tells a client whether the given identity is an admin and
// whether the system still needs its first-admin bootstrap.
type AdminStatus struct {
	IsAdmin        bool `json:"is_admin"`
	NeedsBootstrap bool `json:"needs_bootstrap"`
}

func (s *IdentityService) AdminStatus(ctx context.Context, id string) (*AdminStatus, error) {
	var row struct {
		AdminCount int64
		UserRole   *string
	}
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = ?) AS admin_count,
			(SELECT role FROM users WHERE id = ?) AS user_role`,
		models.RoleAdmin, id).Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("admin status: %w", err)
	}

	if row.AdminCount == 0 {
		return &AdminStatus{IsAdmin: false, NeedsBootstrap: true}, nil
	}
	isAdmin := row.UserRole != nil && *row.UserRole == models.RoleAdmin
	return &AdminStatus{IsAdmin: isAdmin}, nil
}

// EmailUpdate pairs an identity id with the verified email to backfill.
type EmailUpdate struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// BackfillEmails replaces placeholder emails with verified ones in bulk.
// Rows that already carry a real email are left alone; per-row failures are
// collected, not fatal.
func (s *IdentityService) BackfillEmails(ctx context.Context, actingAdminID string, updates []EmailUpdate) (int, []string, error) {
	if err := s.requireAdmin(ctx, actingAdminID); err != nil {
		return 0, nil, err
	}

	updated := 0
	var errs []string
	for _, u := range updates {
		if u.UserID == "" || u.Email == "" {
			errs = append(errs, fmt.Sprintf("invalid update for user %q", u.UserID))
			continue
		}
		result := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ? AND email LIKE ?", u.UserID, "%"+placeholderEmailSuffix).
			Update("email", u.Email)
		if result.Error != nil {
			errs = append(errs, fmt.Sprintf("update user %s: %v", u.UserID, result.Error))
			continue
		}
		if result.RowsAffected > 0 {
			updated++
		}
	}
	return updated, errs, nil
}
