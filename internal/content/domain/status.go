package domain

import (
	"fmt"

	"github.com/romariotrain/content-pipeline/internal/content/models"
)

// CanTransition описывает конечный автомат пайплайна:
// uploading -> uploaded -> processing -> completed, из любого активного
// состояния можно упасть в failed. Назад — только failed -> uploaded
// (ручной retry): элемент снова встаёт в очередь и его заберёт воркер.
// completed терминален.
func CanTransition(from, to models.Status) bool {
	switch from {
	case models.UploadingStatus:
		return to == models.UploadedStatus || to == models.FailedStatus
	case models.UploadedStatus:
		return to == models.ProcessingStatus || to == models.FailedStatus
	case models.ProcessingStatus:
		return to == models.CompletedStatus || to == models.FailedStatus
	case models.CompletedStatus:
		return false
	case models.FailedStatus:
		return to == models.UploadedStatus
	default:
		return false
	}
}

func ValidateTransition(from, to models.Status) error {
	if !from.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrInvalidTransition, from)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", models.ErrInvalidTransition, to)
	}
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, from, to)
	}
	return nil
}

// Terminal сообщает, что из статуса нет исходящих переходов.
func Terminal(s models.Status) bool {
	return s == models.CompletedStatus
}
