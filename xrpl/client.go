package xrpl

import (
	"fmt"
	"time"

	"github.com/everFinance/nftsync/common"
	"github.com/everFinance/nftsync/schema"
	"github.com/tidwall/gjson"
	"gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/timeout"
)

var log = common.NewLog("xrpl")

const (
	errObjectNotFound = "objectNotFound"
	errTxnNotFound    = "txnNotFound"
)

// Client talks json-rpc to a rippled or clio node. nft_info is only served by clio.
type Client struct {
	cli *gentleman.Client
}

func NewClient(rpcUrl string, reqTimeout time.Duration) *Client {
	cli := gentleman.New().URL(rpcUrl)
	if reqTimeout > 0 {
		cli.Use(timeout.Request(reqTimeout))
	}
	return &Client{cli: cli}
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// call returns the "result" object of a successful response.
func (c *Client) call(method string, params map[string]interface{}) (gjson.Result, error) {
	req := c.cli.Request()
	req.Method("POST")
	req.JSON(rpcRequest{Method: method, Params: []interface{}{params}})
	resp, err := req.Send()
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Close()
	if !resp.Ok {
		return gjson.Result{}, fmt.Errorf("%w: %s status %d", schema.ErrRpcResponse, method, resp.StatusCode)
	}
	body := resp.Bytes()
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: %s invalid json", schema.ErrRpcResponse, method)
	}
	result := gjson.GetBytes(body, "result")
	if !result.IsObject() {
		return gjson.Result{}, fmt.Errorf("%w: %s missing result", schema.ErrRpcResponse, method)
	}
	if result.Get("status").String() == "error" {
		switch e := result.Get("error").String(); e {
		case errObjectNotFound, errTxnNotFound:
			return gjson.Result{}, schema.ErrNotFound
		default:
			return gjson.Result{}, fmt.Errorf("%w: %s %s", schema.ErrRpcResponse, method, e)
		}
	}
	return result, nil
}

// NFTInfo looks a token up in the latest validated ledger.
func (c *Client) NFTInfo(id string) (schema.NFTInfo, error) {
	res, err := c.call("nft_info", map[string]interface{}{
		"nft_id":       id,
		"ledger_index": "validated",
	})
	if err != nil {
		return schema.NFTInfo{}, err
	}
	info := schema.NFTInfo{
		NFTokenID: res.Get("nft_id").String(),
		Owner:     res.Get("owner").String(),
		Issuer:    res.Get("issuer").String(),
		Taxon:     uint32(res.Get("nft_taxon").Uint()),
		IsBurned:  res.Get("is_burned").Bool(),
		Uri:       res.Get("uri").String(),
	}
	if info.NFTokenID == "" {
		return info, schema.ErrNotFound
	}
	return info, nil
}

// GetTx returns the raw rpc result of a validated or pending tx.
func (c *Client) GetTx(hash string) ([]byte, error) {
	res, err := c.call("tx", map[string]interface{}{
		"transaction": hash,
		"binary":      false,
	})
	if err != nil {
		return nil, err
	}
	return []byte(res.Raw), nil
}
