package repository

import (
	"context"

	"ai-document-translator/internal/domain/model"
)

type LanguageRepository interface {
	FindByID(ctx context.Context, qx any, id int) (*model.Language, error)
	List(ctx context.Context, qx any) ([]model.Language, error)
	Save(ctx context.Context, qx any, lang *model.Language) error
}
