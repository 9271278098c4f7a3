package store

import (
	"gorm.io/gorm"

	"librarium/pkg/domain"
)

// CreateUser inserts a user and backfills the generated ID.
func (s *GormStore) CreateUser(u *domain.User) error {
	model := userToModel(*u)
	if err := s.db.Create(&model).Error; err != nil {
		return err
	}
	u.ID = model.ID
	return nil
}

func (s *GormStore) GetUser(id uint) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	return s.firstUser("username = ?", username)
}

func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	return s.firstUser("email = ?", email)
}

// FindUserByLogin matches either username or email, for login.
func (s *GormStore) FindUserByLogin(login string) (domain.User, bool, error) {
	return s.firstUser("username = ? OR email = ?", login, login)
}

func (s *GormStore) firstUser(cond string, args ...any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where(cond, args...).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) ListUsers(f UserFilter) ([]domain.User, int64, error) {
	tx := s.db.Model(&UserModel{})
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		tx = tx.Where("username LIKE ? OR email LIKE ?", pattern, pattern)
	}
	if f.Role != "" {
		tx = tx.Where("role = ?", f.Role)
	}
	if f.IsActive != nil {
		tx = tx.Where("is_active = ?", *f.IsActive)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var models []UserModel
	if err := applyPage(tx.Order("created_at ASC"), f.Page).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	users := make([]domain.User, 0, len(models))
	for _, m := range models {
		users = append(users, userFromModel(m))
	}
	return users, total, nil
}

// ListUsersByIDs batch-fetches users keyed by ID, for response decoration.
func (s *GormStore) ListUsersByIDs(ids []uint) (map[uint]domain.User, error) {
	out := make(map[uint]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var models []UserModel
	if err := s.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	for _, m := range models {
		out[m.ID] = userFromModel(m)
	}
	return out, nil
}

func (s *GormStore) ListActiveUserIDs() ([]uint, error) {
	var ids []uint
	if err := s.db.Model(&UserModel{}).Where("is_active = ?", true).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Save(&model).Error
}

func (s *GormStore) DeleteUser(id uint) error {
	return s.db.Delete(&UserModel{}, "id = ?", id).Error
}

func (s *GormStore) CountUsers(activeOnly bool) (int64, error) {
	tx := s.db.Model(&UserModel{})
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var count int64
	err := tx.Count(&count).Error
	return count, err
}

func (s *GormStore) HasAdmin() (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
