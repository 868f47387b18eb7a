package main

import (
	"fmt"
	"path/filepath"
)

func absFolder(folder string) (string, error) {
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", fmt.Errorf("resolve folder %s: %w", folder, err)
	}
	return abs, nil
}
