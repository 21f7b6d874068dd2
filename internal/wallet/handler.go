package wallet

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BalanceResponse is the body of GET /v1/wallets/:identity.
type BalanceResponse struct {
	Identity string  `json:"identity"`
	Balance  int64   `json:"balance"`
	Entries  []Entry `json:"entries"`
}

// RegisterRoutes exposes balances read-only.
func (b *Book) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/wallets/:identity", b.BalanceHandler)
}

func (b *Book) BalanceHandler(c *gin.Context) {
	identity := c.Param("identity")
	c.JSON(http.StatusOK, BalanceResponse{
		Identity: identity,
		Balance:  b.Balance(identity),
		Entries:  b.Journal(identity),
	})
}
