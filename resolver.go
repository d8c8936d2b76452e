package nftsync

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/everFinance/goar"
	"github.com/everFinance/nftsync/cache"
	"github.com/everFinance/nftsync/schema"
	"github.com/tidwall/gjson"
	"gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/timeout"
)

const (
	ipfsScheme = "ipfs://"
	arScheme   = "ar://"

	DefaultIpfsGateway = "https://ipfs.io/ipfs/"
	DefaultArNode      = "https://arweave.net"
)

type arDataFetcher interface {
	GetTransactionDataByGateway(id string) (body []byte, err error)
}

// Resolver turns the hex uri of a token into its metadata document.
// Every failure ends in an empty Metadata; nothing is returned to the caller as an error.
type Resolver struct {
	ipfsGateway string
	arNode      string
	httpCli     *gentleman.Client
	arCli       arDataFetcher
	cache       *cache.Cache
}

func NewResolver(ipfsGateway, arNode string, fetchTimeout time.Duration, c *cache.Cache) *Resolver {
	if ipfsGateway == "" {
		ipfsGateway = DefaultIpfsGateway
	}
	if !strings.HasSuffix(ipfsGateway, "/") {
		ipfsGateway += "/"
	}
	if arNode == "" {
		arNode = DefaultArNode
	}
	httpCli := gentleman.New()
	if fetchTimeout > 0 {
		httpCli.Use(timeout.Request(fetchTimeout))
	}
	return &Resolver{
		ipfsGateway: ipfsGateway,
		arNode:      strings.TrimSuffix(arNode, "/"),
		httpCli:     httpCli,
		arCli:       goar.NewClient(arNode),
		cache:       c,
	}
}

// DecodeUri decodes the hex encoded URI field of a token.
func DecodeUri(hexUri string) (string, error) {
	if hexUri == "" {
		return "", schema.ErrNullUri
	}
	by, err := hex.DecodeString(hexUri)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(by)), nil
}

// GatewayUri rewrites content addressed uris to a fetchable http url.
func (r *Resolver) GatewayUri(uri string) string {
	switch {
	case strings.HasPrefix(uri, ipfsScheme):
		hash := strings.TrimPrefix(uri, ipfsScheme)
		hash = strings.TrimPrefix(hash, "ipfs/")
		return r.ipfsGateway + hash
	case strings.HasPrefix(uri, arScheme):
		return r.arNode + "/" + strings.TrimPrefix(uri, arScheme)
	}
	return uri
}

func (r *Resolver) Resolve(hexUri string) schema.Metadata {
	uri, err := DecodeUri(hexUri)
	if err != nil || uri == "" {
		log.Debug("skip metadata fetch, uri can not be decoded", "err", err, "hexUri", hexUri)
		metricMetadataFetch.WithLabelValues("skipped").Inc()
		return schema.Metadata{}
	}
	return r.ResolveUri(uri)
}

func (r *Resolver) ResolveUri(uri string) schema.Metadata {
	if r.cache != nil {
		if meta, ok := r.cache.GetMetadata(uri); ok {
			metricMetadataFetch.WithLabelValues("cached").Inc()
			return meta
		}
	}

	body, err := r.fetch(uri)
	if err != nil {
		log.Warn("fetch metadata failed", "err", err, "uri", uri)
		metricMetadataFetch.WithLabelValues("failed").Inc()
		return schema.Metadata{}
	}
	meta, err := r.ParseMetadata(body)
	if err != nil {
		log.Warn("r.ParseMetadata(body)", "err", err, "uri", uri)
		metricMetadataFetch.WithLabelValues("failed").Inc()
		return schema.Metadata{}
	}
	metricMetadataFetch.WithLabelValues("success").Inc()

	if r.cache != nil {
		if err := r.cache.SetMetadata(uri, meta); err != nil {
			log.Warn("r.cache.SetMetadata(uri, meta)", "err", err, "uri", uri)
		}
	}
	return meta
}

func (r *Resolver) fetch(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, arScheme) {
		return r.arCli.GetTransactionDataByGateway(strings.TrimPrefix(uri, arScheme))
	}

	url := r.GatewayUri(uri)
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, schema.ErrInvalidUri
	}
	req := r.httpCli.Request()
	req.Method("GET")
	req.URL(url)
	resp, err := req.Send()
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	if !resp.Ok {
		return nil, fmt.Errorf("%w: status %d", schema.ErrFetchMetadata, resp.StatusCode)
	}
	return resp.Bytes(), nil
}

// ParseMetadata reads name, image and attributes out of a metadata document.
// Trait values of any json type are kept as their text form.
func (r *Resolver) ParseMetadata(body []byte) (schema.Metadata, error) {
	meta := schema.Metadata{}
	if !gjson.ValidBytes(body) {
		return meta, fmt.Errorf("%w: invalid json", schema.ErrFetchMetadata)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return meta, fmt.Errorf("%w: metadata is not an object", schema.ErrFetchMetadata)
	}

	if name := doc.Get("name"); name.Type == gjson.String {
		meta.Name = name.String()
	}
	if image := doc.Get("image"); image.Type == gjson.String {
		meta.Image = r.GatewayUri(image.String())
	}
	meta.Attributes = make([]schema.Attribute, 0)
	for _, attr := range doc.Get("attributes").Array() {
		trait := attr.Get("trait_type")
		value := attr.Get("value")
		if trait.Type != gjson.String || !value.Exists() || value.Type == gjson.Null {
			continue
		}
		meta.Attributes = append(meta.Attributes, schema.Attribute{
			TraitType: trait.String(),
			Value:     value.String(),
		})
	}
	return meta, nil
}
