package nftsync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/everFinance/nftsync/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) serve(t *testing.T, method, url string) *httptest.ResponseRecorder {
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	e.tr.engine.ServeHTTP(w, req)
	return w
}

func TestApi_Tokens(t *testing.T) {
	env := newTestEnv(t, defaultTestOpts())
	env.ledger.addToken("ID1", "ipfs://art1")
	env.ledger.addToken("ID2", "ipfs://art1")
	env.dispatch(t, mintMsg("H1", testIssuer, "", testTaxon, "ID1"))
	env.dispatch(t, mintMsg("H2", testIssuer, "", testTaxon, "ID2"))
	env.dispatch(t, burnMsg("H3", testIssuer, "ID2"))
	env.tr.Wait()

	w := env.serve(t, "GET", "/tokens/ID1")
	assert.Equal(t, http.StatusOK, w.Code)
	tok := schema.RespToken{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tok))
	assert.Equal(t, schema.RespToken{
		Identifier: "ID1",
		Owner:      testIssuer,
		Name:       "Art #1",
		Image:      "https://ipfs.io/ipfs/abc",
		Attributes: map[string]string{"background": "Blue"},
	}, tok)

	w = env.serve(t, "GET", "/tokens/ID9")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.serve(t, "GET", "/tokens/ID2/events")
	assert.Equal(t, http.StatusOK, w.Code)
	evs := make([]schema.TokenEvent, 0)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &evs))
	assert.Len(t, evs, 2)

	w = env.serve(t, "GET", "/owners/"+testIssuer+"/tokens?limit=1")
	assert.Equal(t, http.StatusOK, w.Code)
	toks := make([]schema.RespToken, 0)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toks))
	require.Len(t, toks, 1)
	assert.Equal(t, "ID1", toks[0].Identifier)

	w = env.serve(t, "GET", "/owners/"+testIssuer+"/tokens?cursor=ID1")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &toks))
	require.Len(t, toks, 1)
	assert.Equal(t, "ID2", toks[0].Identifier)
	assert.True(t, toks[0].Destroyed)

	w = env.serve(t, "GET", "/owners/"+testIssuer+"/tokens?limit=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApi_Info(t *testing.T) {
	env := newTestEnv(t, defaultTestOpts())
	env.ledger.addToken("ID1", "ipfs://art1")
	env.dispatch(t, mintMsg("H1", testIssuer, "", testTaxon, "ID1"))
	env.tr.Wait()

	w := env.serve(t, "GET", "/info")
	assert.Equal(t, http.StatusOK, w.Code)
	info := schema.RespInfo{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, testIssuer, info.Issuer)
	assert.Equal(t, testTaxon, info.Taxon)
	assert.Equal(t, int64(1), info.Tokens)
	assert.Equal(t, int64(0), info.DestroyedTokens)
	assert.Equal(t, 0, info.PendingTxs)
	assert.Equal(t, []string{"background"}, info.AttributeColumns)
}

func TestApi_Resync(t *testing.T) {
	env := newTestEnv(t, defaultTestOpts())
	env.ledger.addToken("ID1", "ipfs://art1")
	env.ledger.txs["H1"] = mintMsg("H1", testIssuer, "", testTaxon, "ID1")

	w := env.serve(t, "POST", "/resync/H1")
	assert.Equal(t, http.StatusOK, w.Code)
	env.tr.Wait()
	assert.True(t, env.tr.wdb.ExistToken("ID1"))

	w = env.serve(t, "POST", "/resync/H404")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
