package core

//go:generate go run go.uber.org/mock/mockgen -source=translator.go -destination=../mocks/mock_translator.go -package=mocks

import (
	"context"

	"github.com/dkeye/Parley/internal/domain"
)

// Translator is the external text-to-text capability. Implementations may
// fail; callers fall back to the source text.
type Translator interface {
	Translate(ctx context.Context, text string, target domain.Language) (string, error)
}
