package endpoint

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/transcribot/errors"
	"github.com/kbukum/transcribot/store"
)

// AccountsPageSize matches the /users bot command.
const AccountsPageSize = 10

// AccountLister reads the account table.
type AccountLister interface {
	ListAccounts(ctx context.Context, offset, limit int) ([]store.Account, error)
	CountAccounts(ctx context.Context) (int64, error)
}

// Accounts serves GET /accounts?page=N, pages starting at 1.
func Accounts(accounts AccountLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 1
		if raw := c.Query("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				RespondWithError(c, apperrors.InvalidInput("page", "page must be a positive integer"))
				return
			}
			page = n
		}

		ctx := c.Request.Context()
		total, err := accounts.CountAccounts(ctx)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		list, err := accounts.ListAccounts(ctx, (page-1)*AccountsPageSize, AccountsPageSize)
		if err != nil {
			RespondWithError(c, err)
			return
		}
		RespondOKWithMeta(c, list, &Meta{
			Page:       page,
			PageSize:   AccountsPageSize,
			Total:      total,
			TotalPages: int((total + AccountsPageSize - 1) / AccountsPageSize),
		})
	}
}
