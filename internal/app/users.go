package app

import (
	"fmt"
	"strings"

	"librarium/pkg/auth"
	"librarium/pkg/domain"
	"librarium/pkg/store"
)

const defaultMaxBorrowCount = 5

// RegisterInput carries the self-service registration fields.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// UpdateProfileInput carries optional self-service profile changes.
type UpdateProfileInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

// AdminUpdateUserInput extends profile changes with admin-only fields.
type AdminUpdateUserInput struct {
	UpdateProfileInput
	Role           *string `json:"role"`
	IsActive       *bool   `json:"is_active"`
	MaxBorrowCount *int    `json:"max_borrow_count"`
}

// Register creates a regular user account.
func (a *App) Register(in RegisterInput) (domain.User, error) {
	return a.createUser(in, domain.RoleUser)
}

// AdminCreateUser creates an account with an explicit role.
func (a *App) AdminCreateUser(in RegisterInput, role string) (domain.User, error) {
	parsed, err := parseRole(role)
	if err != nil {
		return domain.User{}, err
	}
	return a.createUser(in, parsed)
}

func (a *App) createUser(in RegisterInput, role domain.UserRole) (domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if len(username) < 3 || len(username) > 50 {
		return domain.User{}, precondition("username must be 3-50 characters")
	}
	if email == "" {
		return domain.User{}, precondition("email required")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.User{}, precondition("%s", err.Error())
	}
	var user domain.User
	err := a.store.Transact(func(tx store.Store) error {
		if _, ok, err := tx.GetUserByUsername(username); err != nil {
			return fmt.Errorf("check username: %w", err)
		} else if ok {
			return conflict("username already registered")
		}
		if _, ok, err := tx.GetUserByEmail(email); err != nil {
			return fmt.Errorf("check email: %w", err)
		} else if ok {
			return conflict("email already registered")
		}
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		now := a.now()
		user = domain.User{
			Username:       username,
			Email:          email,
			PasswordHash:   hash,
			FullName:       strings.TrimSpace(in.FullName),
			Role:           role,
			IsActive:       true,
			MaxBorrowCount: defaultMaxBorrowCount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return tx.CreateUser(&user)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login authenticates by username or email and issues an access token.
func (a *App) Login(login, password string) (domain.User, string, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return domain.User{}, "", precondition("username and password required")
	}
	user, ok, err := a.store.FindUserByLogin(login)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("find user: %w", err)
	}
	if !ok || !auth.CheckPassword(user.PasswordHash, password) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.User{}, "", ErrUserDisabled
	}
	accessToken, err := a.tokens.Issue(fmt.Sprint(user.ID), user.Username, string(user.Role))
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, accessToken, nil
}

// InitAdmin creates the bootstrap admin account. Rejected once any
// admin exists.
func (a *App) InitAdmin(in RegisterInput) (domain.User, error) {
	hasAdmin, err := a.store.HasAdmin()
	if err != nil {
		return domain.User{}, fmt.Errorf("check admin: %w", err)
	}
	if hasAdmin {
		return domain.User{}, conflict("admin account already exists")
	}
	return a.createUser(in, domain.RoleAdmin)
}

// GetUser fetches one user by ID.
func (a *App) GetUser(id uint) (domain.User, error) {
	user, ok, err := a.store.GetUser(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return domain.User{}, notFound("user not found")
	}
	return user, nil
}

// ListUsers returns users matching the filter with the total count.
func (a *App) ListUsers(f store.UserFilter) ([]domain.User, int64, error) {
	users, total, err := a.store.ListUsers(f)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// UpdateProfile applies self-service changes to the user's own account.
func (a *App) UpdateProfile(userID uint, in UpdateProfileInput) (domain.User, error) {
	return a.updateUser(userID, AdminUpdateUserInput{UpdateProfileInput: in})
}

// AdminUpdateUser applies admin changes to any account.
func (a *App) AdminUpdateUser(userID uint, in AdminUpdateUserInput) (domain.User, error) {
	if in.Role != nil {
		if _, err := parseRole(*in.Role); err != nil {
			return domain.User{}, err
		}
	}
	return a.updateUser(userID, in)
}

func (a *App) updateUser(userID uint, in AdminUpdateUserInput) (domain.User, error) {
	var user domain.User
	err := a.store.Transact(func(tx store.Store) error {
		var ok bool
		var err error
		user, ok, err = tx.GetUser(userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if !ok {
			return notFound("user not found")
		}
		if in.Username != nil {
			username := strings.TrimSpace(*in.Username)
			if username != user.Username {
				if len(username) < 3 || len(username) > 50 {
					return precondition("username must be 3-50 characters")
				}
				if _, taken, err := tx.GetUserByUsername(username); err != nil {
					return fmt.Errorf("check username: %w", err)
				} else if taken {
					return conflict("username already in use")
				}
				user.Username = username
			}
		}
		if in.Email != nil {
			email := strings.TrimSpace(strings.ToLower(*in.Email))
			if email != user.Email {
				if _, taken, err := tx.GetUserByEmail(email); err != nil {
					return fmt.Errorf("check email: %w", err)
				} else if taken {
					return conflict("email already in use")
				}
				user.Email = email
			}
		}
		if in.FullName != nil {
			user.FullName = strings.TrimSpace(*in.FullName)
		}
		if in.Password != nil && *in.Password != "" {
			if err := auth.ValidatePassword(*in.Password); err != nil {
				return precondition("%s", err.Error())
			}
			hash, err := auth.HashPassword(*in.Password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			user.PasswordHash = hash
		}
		if in.Role != nil {
			role, err := parseRole(*in.Role)
			if err != nil {
				return err
			}
			user.Role = role
		}
		if in.IsActive != nil {
			user.IsActive = *in.IsActive
		}
		if in.MaxBorrowCount != nil {
			if *in.MaxBorrowCount < 1 {
				return precondition("max borrow count must be at least 1")
			}
			user.MaxBorrowCount = *in.MaxBorrowCount
		}
		user.UpdatedAt = a.now()
		return tx.SaveUser(user)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// ChangePassword verifies the old password before setting a new one.
func (a *App) ChangePassword(userID uint, oldPassword, newPassword string) error {
	return a.store.Transact(func(tx store.Store) error {
		user, ok, err := tx.GetUser(userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if !ok {
			return notFound("user not found")
		}
		if !auth.CheckPassword(user.PasswordHash, oldPassword) {
			return precondition("old password is incorrect")
		}
		if err := auth.ValidatePassword(newPassword); err != nil {
			return precondition("%s", err.Error())
		}
		hash, err := auth.HashPassword(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		user.UpdatedAt = a.now()
		return tx.SaveUser(user)
	})
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (a *App) DeleteUser(actorID, userID uint) error {
	if actorID == userID {
		return precondition("cannot delete your own account")
	}
	return a.store.Transact(func(tx store.Store) error {
		_, ok, err := tx.GetUser(userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if !ok {
			return notFound("user not found")
		}
		open, err := tx.CountBorrows(&userID, []domain.BorrowStatus{domain.BorrowStatusBorrowed, domain.BorrowStatusOverdue})
		if err != nil {
			return fmt.Errorf("count open borrows: %w", err)
		}
		if open > 0 {
			return conflict("user has unreturned books")
		}
		return tx.DeleteUser(userID)
	})
}

func parseRole(role string) (domain.UserRole, error) {
	switch domain.UserRole(role) {
	case domain.RoleUser, domain.RoleAdmin:
		return domain.UserRole(role), nil
	default:
		return "", precondition("invalid role %q", role)
	}
}
