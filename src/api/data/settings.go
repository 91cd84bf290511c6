package data

import (
	"sync"

	"gorm.io/gorm"

	"github.com/atulbakery/ishan-assistant/src/api/types"
)

var (
	settingsCache map[string]string
	settingsMu    sync.RWMutex
)

// LoadSettings loads all settings from database into cache
func LoadSettings(db *gorm.DB) error {
	var settings []types.Setting
	if err := db.Find(&settings).Error; err != nil {
		return err
	}

	m := make(map[string]string, len(settings))
	for _, s := range settings {
		m[s.Name] = s.Value
	}
	SetSettings(m)
	return nil
}

// SetSettings replaces the cache wholesale.
func SetSettings(m map[string]string) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	settingsCache = m
}

// GetSetting retrieves a setting value by name
func GetSetting(name string) string {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	return settingsCache[name]
}

// SaveSetting upserts a setting and updates the cache.
func SaveSetting(db *gorm.DB, name, value string) error {
	if err := db.Save(&types.Setting{Name: name, Value: value}).Error; err != nil {
		return err
	}
	settingsMu.Lock()
	defer settingsMu.Unlock()
	if settingsCache == nil {
		settingsCache = map[string]string{}
	}
	settingsCache[name] = value
	return nil
}
