package helpers

import "context"

// CurrentUser resolves a Telegram user ID to the application's account type
// through any service exposing GetUserByTelegramID. A nil service yields the
// zero value without error.
func CurrentUser[T any](
	ctx context.Context,
	service interface {
		GetUserByTelegramID(context.Context, int64) (T, error)
	},
	tgID int64,
) (T, error) {
	if service == nil {
		var zero T
		return zero, nil
	}
	return service.GetUserByTelegramID(ctx, tgID)
}
