package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"librarium/pkg/domain"
	"librarium/pkg/store"
)

// Setting keys used by circulation and reservations.
const (
	settingBorrowDays            = "borrow_days"
	settingMaxBorrowCount        = "max_borrow_count"
	settingMaxRenewCount         = "max_renew_count"
	settingRenewDays             = "renew_days"
	settingReservationExpireDays = "reservation_expire_days"
	settingDailyFine             = "daily_fine"
)

type settingDefault struct {
	value       string
	description string
}

var settingDefaults = map[string]settingDefault{
	settingBorrowDays:            {"30", "Default loan period in days"},
	settingMaxBorrowCount:        {"5", "Default open-loan limit per user"},
	settingMaxRenewCount:         {"2", "Maximum renewals per loan"},
	settingRenewDays:             {"14", "Days added per renewal"},
	settingReservationExpireDays: {"3", "Pickup window for an available reservation"},
	settingDailyFine:             {"0.5", "Fine per day overdue"},
	"library_name":               {"Library", "Display name of the library"},
	"library_contact":            {"", "Contact address shown to users"},
}

// ListSettings returns every setting, stored rows overriding defaults,
// sorted by key.
func (a *App) ListSettings() ([]domain.Setting, error) {
	stored, err := a.store.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	byKey := make(map[string]domain.Setting, len(settingDefaults)+len(stored))
	for key, def := range settingDefaults {
		byKey[key] = domain.Setting{Key: key, Value: def.value, Description: def.description}
	}
	for _, s := range stored {
		byKey[s.Key] = s
	}
	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]domain.Setting, 0, len(keys))
	for _, key := range keys {
		out = append(out, byKey[key])
	}
	return out, nil
}

// GetSetting returns a setting, falling back to the hardcoded default.
func (a *App) GetSetting(key string) (domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Setting{}, precondition("config key required")
	}
	setting, ok, err := a.store.GetSetting(key)
	if err != nil {
		return domain.Setting{}, fmt.Errorf("get setting: %w", err)
	}
	if ok {
		return setting, nil
	}
	if def, ok := settingDefaults[key]; ok {
		return domain.Setting{Key: key, Value: def.value, Description: def.description}, nil
	}
	return domain.Setting{}, notFound("config %q not found", key)
}

// SetSetting upserts a setting value.
func (a *App) SetSetting(key, value, description string) (domain.Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Setting{}, precondition("config key required")
	}
	setting := domain.Setting{
		Key:         key,
		Value:       value,
		Description: description,
		UpdatedAt:   a.now(),
	}
	if err := a.store.SaveSetting(setting); err != nil {
		return domain.Setting{}, fmt.Errorf("save setting: %w", err)
	}
	return a.GetSetting(key)
}

// DeleteSetting removes a stored override; the default remains in effect.
func (a *App) DeleteSetting(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return precondition("config key required")
	}
	_, ok, err := a.store.GetSetting(key)
	if err != nil {
		return fmt.Errorf("get setting: %w", err)
	}
	if !ok {
		return notFound("config %q not found", key)
	}
	if err := a.store.DeleteSetting(key); err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}

// InitDefaultSettings stores every default that has no row yet.
func (a *App) InitDefaultSettings() ([]domain.Setting, error) {
	for key, def := range settingDefaults {
		_, ok, err := a.store.GetSetting(key)
		if err != nil {
			return nil, fmt.Errorf("get setting: %w", err)
		}
		if ok {
			continue
		}
		setting := domain.Setting{
			Key:         key,
			Value:       def.value,
			Description: def.description,
			UpdatedAt:   a.now(),
		}
		if err := a.store.SaveSetting(setting); err != nil {
			return nil, fmt.Errorf("save setting: %w", err)
		}
	}
	return a.ListSettings()
}

// settingInt reads an integer setting through a transaction-scoped store,
// falling back to the default when the row is missing or malformed.
func settingInt(s store.Store, key string) int {
	raw := settingValue(s, key)
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		return v
	}
	v, _ := strconv.Atoi(settingDefaults[key].value)
	return v
}

func settingFloat(s store.Store, key string) float64 {
	raw := settingValue(s, key)
	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return v
	}
	v, _ := strconv.ParseFloat(settingDefaults[key].value, 64)
	return v
}

func settingValue(s store.Store, key string) string {
	setting, ok, err := s.GetSetting(key)
	if err != nil || !ok {
		return settingDefaults[key].value
	}
	return setting.Value
}
