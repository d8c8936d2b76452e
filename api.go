package nftsync

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/everFinance/nftsync/common"
	"github.com/everFinance/nftsync/schema"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

func (t *Tracker) runAPI(srv *http.Server) {
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("api server stopped", "err", err, "addr", srv.Addr)
	}
}

func (t *Tracker) registerRoutes() {
	r := t.engine
	r.Use(common.CORSMiddleware())
	v1 := r.Group("/")
	{
		v1.Use(common.LimiterMiddleware(200, "M"))
		v1.GET("/info", t.getInfo)
		v1.GET("/tokens/:id", t.getToken)
		v1.GET("/tokens/:id/events", t.getTokenEvents)
		v1.GET("/owners/:owner/tokens", t.getOwnerTokens)
		v1.POST("/resync/:hash", t.resyncTx)
	}
}

func (t *Tracker) getInfo(c *gin.Context) {
	active, err := t.wdb.CountTokens(false)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	destroyed, err := t.wdb.CountTokens(true)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, schema.RespInfo{
		Issuer:           t.issuer,
		Taxon:            t.taxon,
		LastLedger:       t.LastLedger(),
		Tokens:           active + destroyed,
		DestroyedTokens:  destroyed,
		PendingTxs:       t.store.CountPendingTxs(),
		AttributeColumns: t.columns.Known(),
	})
}

func (t *Tracker) getToken(c *gin.Context) {
	id := c.Param("id")
	tok, err := t.wdb.GetToken(id)
	if err != nil {
		if err == schema.ErrNotExist {
			notFoundResponse(c, err.Error())
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	attrs, err := t.wdb.GetTokenAttributes(id)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, respToken(tok, attrs))
}

func (t *Tracker) getTokenEvents(c *gin.Context) {
	evs, err := t.wdb.GetTokenEvents(c.Param("id"))
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, evs)
}

func (t *Tracker) getOwnerTokens(c *gin.Context) {
	limit := defaultPageLimit
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			errorResponse(c, "invalid limit")
			return
		}
		limit = n
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	toks, err := t.wdb.GetTokensByOwner(c.Param("owner"), c.Query("cursor"), limit)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	res := make([]schema.RespToken, 0, len(toks))
	for _, tok := range toks {
		res = append(res, respToken(tok, nil))
	}
	c.JSON(http.StatusOK, res)
}

func (t *Tracker) resyncTx(c *gin.Context) {
	hash := c.Param("hash")
	if err := t.Resync(hash); err != nil {
		if errors.Is(err, schema.ErrNotFound) {
			notFoundResponse(c, err.Error())
			return
		}
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, "ok")
}

func respToken(tok schema.NFToken, attrs map[string]string) schema.RespToken {
	if attrs == nil {
		attrs = make(map[string]string)
	}
	return schema.RespToken{
		Identifier: tok.Identifier,
		Destroyed:  tok.Destroyed,
		Owner:      tok.Owner,
		Name:       tok.Name,
		Image:      tok.Image,
		Attributes: attrs,
	}
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func notFoundResponse(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}

// shutdownAPI is used by Close; a nil server means the api never started.
func (t *Tracker) shutdownAPI(ctx context.Context) {
	if t.apiSrv == nil {
		return
	}
	if err := t.apiSrv.Shutdown(ctx); err != nil {
		log.Error("t.apiSrv.Shutdown(ctx)", "err", err)
	}
}
