package tests

import (
	"gorm.io/gorm"
)

// InsertRecords creates each record in order, stopping at the first failure.
func InsertRecords(grm *gorm.DB, records ...interface{}) error {
	for _, r := range records {
		if res := grm.Create(r); res.Error != nil {
			return res.Error
		}
	}
	return nil
}
