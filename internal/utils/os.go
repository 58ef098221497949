package utils

import (
	"fmt"
	"os"
)

const ShelfadminDir = ".shelfadmin"

// GetShelfadminHomeDirectory returns ~/.shelfadmin, creating it on
// first use. It only holds the orphan reconciliation database, never
// catalog or PDF content.
func GetShelfadminHomeDirectory() (string, error) {
	homedir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("os.UserHomeDir(). %w", err)
	}

	dir := homedir + "/" + ShelfadminDir

	_, err = os.Stat(dir)
	if os.IsNotExist(err) {
		err = os.MkdirAll(dir, 0764)
		if err != nil {
			return "", fmt.Errorf("os.MkdirAll(dir, 0764). %w", err)
		}
	}

	return dir, nil
}
