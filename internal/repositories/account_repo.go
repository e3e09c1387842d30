package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketsquad/authgate/internal/database"
	"github.com/marketsquad/authgate/internal/models"
)

// AccountRepository handles persistence of accounts and their lockout state
type AccountRepository struct {
	db *database.DB
}

func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// rowScanner lets scanAccountRow work with both QueryRow and Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const accountColumns = `
	a.id, a.first_name, a.last_name, a.phone, a.email, a.password_hash,
	a.user_type, a.is_active, a.is_phone_verified, a.is_email_verified,
	a.language_code, a.login_hit_count, a.is_temp_blocked, a.temp_block_time,
	a.created_at, a.updated_at,
	p.is_approved, p.mobile_app_access,
	EXISTS(
		SELECT 1 FROM account_roles ar
		JOIN roles r ON r.id = ar.role_id
		WHERE ar.account_id = a.id AND r.is_active
	) AS has_active_role
`

// scanAccountRow handles the nullable columns (email, block timestamp and
// the provider profile joined with LEFT JOIN)
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var account models.Account
	var email, passwordHash *string
	var tempBlockTime *time.Time
	var providerApproval *int
	var mobileAppAccess *bool

	err := scanner.Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.Phone,
		&email, &passwordHash, &account.UserType, &account.IsActive,
		&account.PhoneVerified, &account.EmailVerified, &account.LanguageCode,
		&account.LoginHitCount, &account.IsTempBlocked, &tempBlockTime,
		&account.CreatedAt, &account.UpdatedAt,
		&providerApproval, &mobileAppAccess, &account.HasActiveRole,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if email != nil {
		account.Email = *email
	}
	if passwordHash != nil {
		account.PasswordHash = *passwordHash
	}
	account.TempBlockTime = tempBlockTime
	account.ProviderApproval = providerApproval
	if mobileAppAccess != nil {
		account.MobileAppAccess = *mobileAppAccess
	}

	return &account, nil
}

// GetByIdentifier looks up an account by phone or email, restricted to the
// user types permitted for the calling entry point.
func (r *AccountRepository) GetByIdentifier(ctx context.Context, identifier string, userTypes []string) (*models.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM accounts a
		LEFT JOIN providers p ON p.account_id = a.id
		WHERE (a.phone = $1 OR a.email = $1) AND a.user_type = ANY($2)
		LIMIT 1
	`, accountColumns)

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, identifier, userTypes))
}

// GetByPhone looks up an account by phone only (the serviceman entry point)
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string, userTypes []string) (*models.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM accounts a
		LEFT JOIN providers p ON p.account_id = a.id
		WHERE a.phone = $1 AND a.user_type = ANY($2)
		LIMIT 1
	`, accountColumns)

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, phone, userTypes))
}

// GetByEmail looks up an account by email, restricted to the given user
// types; pass nil to search across all types.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string, userTypes []string) (*models.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM accounts a
		LEFT JOIN providers p ON p.account_id = a.id
		WHERE a.email = $1 AND ($2::text[] IS NULL OR a.user_type = ANY($2))
		LIMIT 1
	`, accountColumns)

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, email, userTypes))
}

// FindByPhoneOrEmail looks up an account matching either value across all
// user types, for registration conflict checks.
func (r *AccountRepository) FindByPhoneOrEmail(ctx context.Context, phone, email string) (*models.Account, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM accounts a
		LEFT JOIN providers p ON p.account_id = a.id
		WHERE a.phone = $1 OR a.email = $2
		LIMIT 1
	`, accountColumns)

	return scanAccountRow(r.db.Pool.QueryRow(ctx, query, phone, email))
}

// Create inserts a new account record
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	account.ID = uuid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	if account.LanguageCode == "" {
		account.LanguageCode = "en"
	}

	query := `
		INSERT INTO accounts (id, first_name, last_name, phone, email, password_hash,
			user_type, is_active, is_phone_verified, is_email_verified, language_code,
			login_hit_count, is_temp_blocked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, false, $12, $13)
	`

	var email *string
	if account.Email != "" {
		email = &account.Email
	}

	_, err := r.db.Pool.Exec(ctx, query,
		account.ID, account.FirstName, account.LastName, account.Phone, email,
		account.PasswordHash, account.UserType, account.IsActive,
		account.PhoneVerified, account.EmailVerified, account.LanguageCode,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return account, nil
}

// RecordFailedLogin increments the login hit counter and, when the counter
// reaches maxHits, sets the temporary block in the same statement. The
// whole read-modify-write happens inside the database so concurrent failed
// attempts cannot lose updates.
func (r *AccountRepository) RecordFailedLogin(ctx context.Context, id string, maxHits int) (hitCount int, blocked bool, err error) {
	query := `
		UPDATE accounts
		SET login_hit_count = login_hit_count + 1,
			is_temp_blocked = (login_hit_count + 1 >= $2),
			temp_block_time = CASE WHEN login_hit_count + 1 >= $2 THEN NOW() ELSE temp_block_time END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING login_hit_count, is_temp_blocked
	`

	err = r.db.Pool.QueryRow(ctx, query, id, maxHits).Scan(&hitCount, &blocked)
	if err != nil {
		return 0, false, database.MapPostgresError(err)
	}

	return hitCount, blocked, nil
}

// ClearTempBlock resets the lockout state after the block window has
// expired. Guarded by is_temp_blocked so concurrent resets are harmless.
func (r *AccountRepository) ClearTempBlock(ctx context.Context, id string) error {
	query := `
		UPDATE accounts
		SET login_hit_count = 0, is_temp_blocked = false, temp_block_time = NULL, updated_at = NOW()
		WHERE id = $1 AND is_temp_blocked
	`

	_, err := r.db.Pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// GetBlockTime re-reads the block timestamp for the pre-issuance lockout
// re-check.
func (r *AccountRepository) GetBlockTime(ctx context.Context, id string) (*time.Time, error) {
	query := `SELECT temp_block_time FROM accounts WHERE id = $1`

	var blockTime *time.Time
	if err := r.db.Pool.QueryRow(ctx, query, id).Scan(&blockTime); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return blockTime, nil
}

// ClearExpiredBlocks bulk-resets lockouts whose window has passed, so
// stale block flags do not linger on accounts that never retry.
func (r *AccountRepository) ClearExpiredBlocks(ctx context.Context, window time.Duration) (int64, error) {
	query := `
		UPDATE accounts
		SET is_temp_blocked = false,
		    temp_block_time = NULL,
		    login_hit_count = 0,
		    updated_at = NOW()
		WHERE is_temp_blocked = true
		  AND temp_block_time < NOW() - $1::interval
	`

	result, err := r.db.Pool.Exec(ctx, query, window)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

// MarkEmailVerified flags the account email as verified
func (r *AccountRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `UPDATE accounts SET is_email_verified = true, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DetachEmail clears the email and its verified flag, freeing the address
// for a new registration after the user declined the existing-account match.
func (r *AccountRepository) DetachEmail(ctx context.Context, id string) error {
	query := `UPDATE accounts SET email = NULL, is_email_verified = false, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
