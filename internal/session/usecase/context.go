package usecase

import (
	"context"

	"melodiapp-web/internal/shared/utils"
)

func withTabOperation(ctx context.Context, tabID, operation string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if existing, err := utils.GetTabIDFromContext(ctx); err != nil || existing != tabID {
		ctx = utils.WithTabID(ctx, tabID)
	}
	return utils.WithOperation(ctx, operation)
}
