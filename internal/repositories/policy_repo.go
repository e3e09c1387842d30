package repositories

import (
	"context"
	"strconv"
	"time"

	"github.com/marketsquad/authgate/internal/database"
	"github.com/marketsquad/authgate/internal/models"
)

// Business-settings keys consumed by the login flow.
const (
	settingMaxLoginHits      = "maximum_login_hit"
	settingTempBlockDuration = "temporary_login_block_time"
	settingPhoneVerification = "phone_verification"
	settingEmailVerification = "email_verification"
)

// PolicyRepository reads the login policy from the key/value
// business-settings table. Missing rows fall back to the configured
// defaults, matching how the settings panel treats unset values.
type PolicyRepository struct {
	db       *database.DB
	defaults models.LoginPolicy
}

func NewPolicyRepository(db *database.DB, defaults models.LoginPolicy) *PolicyRepository {
	return &PolicyRepository{db: db, defaults: defaults}
}

// Get returns the current login policy
func (r *PolicyRepository) Get(ctx context.Context) (models.LoginPolicy, error) {
	query := `
		SELECT key, value FROM business_settings
		WHERE key = ANY($1)
	`

	keys := []string{
		settingMaxLoginHits,
		settingTempBlockDuration,
		settingPhoneVerification,
		settingEmailVerification,
	}

	rows, err := r.db.Pool.Query(ctx, query, keys)
	if err != nil {
		return r.defaults, database.MapPostgresError(err)
	}
	defer rows.Close()

	policy := r.defaults

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return r.defaults, database.MapPostgresError(err)
		}

		switch key {
		case settingMaxLoginHits:
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				policy.MaxLoginHits = n
			}
		case settingTempBlockDuration:
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				policy.TempBlockDuration = time.Duration(n) * time.Second
			}
		case settingPhoneVerification:
			policy.PhoneVerification = value == "1" || value == "true"
		case settingEmailVerification:
			policy.EmailVerification = value == "1" || value == "true"
		}
	}

	if err := rows.Err(); err != nil {
		return r.defaults, database.MapPostgresError(err)
	}

	return policy, nil
}
