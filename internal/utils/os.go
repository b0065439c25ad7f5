package utils

import (
	"os"
	"path/filepath"
)

// ExecutableName is the name the program was started as, for use in help
// and error messages.
func ExecutableName() string {
	executable, err := os.Executable()
	if err != nil {
		return "multipicture"
	}
	return filepath.Base(executable)
}
