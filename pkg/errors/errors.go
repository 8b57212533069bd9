package errors

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")

	// auth / user
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserAlreadyExists   = errors.New("email or username already in use")
	ErrUsernameTaken       = errors.New("username already in use")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidPassword     = errors.New("current password is incorrect")
	ErrWeakPassword        = errors.New("password must be at least 6 characters")
	ErrInvalidRegistration = errors.New("username, email and password are required")

	// admin
	ErrAdminNotFound        = errors.New("admin not found")
	ErrInvalidAdminPassword = errors.New("invalid admin password")
	ErrAdminDisabled        = errors.New("admin disabled")

	// races / drivers
	ErrRaceNotFound       = errors.New("race not found")
	ErrDriverNotFound     = errors.New("driver not found")
	ErrInvalidRace        = errors.New("invalid race")
	ErrInvalidDriver      = errors.New("invalid driver")
	ErrMappingConflict    = errors.New("provider driver already mapped")
	ErrRaceRoundDuplicate = errors.New("season round already assigned to another race")

	// bets
	ErrBettingClosed = errors.New("race not found or betting closed")
	ErrAlreadyBet    = errors.New("already bet on this race")

	// settlement
	ErrResultsNotAvailable = errors.New("race results not available")
	ErrUnknownPolicy       = errors.New("unknown settlement policy")

	// synchronization
	ErrNoResults       = errors.New("provider returned no results")
	ErrProviderFailure = errors.New("results provider failure")
	ErrProviderTimeout = errors.New("results provider timeout")
	ErrSyncInProgress  = errors.New("result synchronization already in progress")
)
