package store

import (
	"gorm.io/gorm"

	"librarium/pkg/domain"
)

func (s *GormStore) GetSetting(key string) (domain.Setting, bool, error) {
	var model SettingModel
	if err := s.db.Where("config_key = ?", key).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Setting{}, false, nil
		}
		return domain.Setting{}, false, err
	}
	return settingFromModel(model), true, nil
}

func (s *GormStore) ListSettings() ([]domain.Setting, error) {
	var models []SettingModel
	if err := s.db.Order("config_key ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	settings := make([]domain.Setting, 0, len(models))
	for _, m := range models {
		settings = append(settings, settingFromModel(m))
	}
	return settings, nil
}

// SaveSetting upserts by key: existing rows keep their ID.
func (s *GormStore) SaveSetting(setting domain.Setting) error {
	var existing SettingModel
	err := s.db.Where("config_key = ?", setting.Key).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return err
		}
		model := settingToModel(setting)
		return s.db.Create(&model).Error
	}
	existing.Value = setting.Value
	if setting.Description != "" {
		existing.Description = setting.Description
	}
	existing.UpdatedAt = setting.UpdatedAt
	return s.db.Save(&existing).Error
}

func (s *GormStore) DeleteSetting(key string) error {
	return s.db.Delete(&SettingModel{}, "config_key = ?", key).Error
}
