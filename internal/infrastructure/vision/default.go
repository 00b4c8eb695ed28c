//go:build !gocv
// +build !gocv

package vision

import "leaf-health-bot/internal/domain/port"

// NewDefault возвращает детектор на чистом Go (сборка без тега gocv).
func NewDefault() port.SymptomDetector {
	return NewDetector()
}
