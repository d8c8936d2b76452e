package schema

import (
	"errors"
)

var (
	ErrNotExist = errors.New("not_exist_record")
	ErrNotFound = errors.New("not_found")

	ErrNullUri        = errors.New("null_uri")
	ErrInvalidUri     = errors.New("invalid_uri")
	ErrFetchMetadata  = errors.New("fetch_metadata_failed")
	ErrInvalidIssuer  = errors.New("invalid_issuer")
	ErrInvalidTaxon   = errors.New("invalid_taxon")
	ErrInvalidColumn  = errors.New("invalid_column_name")
	ErrSubscribe      = errors.New("subscribe_stream_failed")
	ErrStreamClosed   = errors.New("stream_closed")
	ErrRpcResponse    = errors.New("rpc_response_error")
	ErrTrackerStopped = errors.New("tracker_stopped")
)
