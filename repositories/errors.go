package repositories

import (
	"errors"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the repository sentinels. The database
// must be opened with TranslateError so duplicate keys surface as
// gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
