package logs

import (
	"reflect"
	"testing"
	"time"

	"github.com/louisbranch/logsprovider/internal/services/logs/provider"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
	"google.golang.org/protobuf/proto"
)

func TestResultSetSurvivesWireEncoding(t *testing.T) {
	t.Parallel()

	ts := time.UnixMilli(1_700_000_000_123).UTC()
	result := &provider.ResultSet{
		URI:  collectionURI,
		Rows: []storage.Log{{ID: 1<<62 + 1, Msg: "big id", Timestamp: ts}, {ID: 7, Msg: "", Timestamp: ts}},
	}
	data, err := proto.Marshal(EncodeResultSet(result))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := NewQueryResponse()
	if err := proto.Unmarshal(data, out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	uri, rows, err := DecodeResultSet(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if uri != collectionURI {
		t.Fatalf("uri = %q", uri)
	}
	if !reflect.DeepEqual(rows, result.Rows) {
		t.Fatalf("rows = %+v, want %+v", rows, result.Rows)
	}
}

func TestQueryRequestCarriesHints(t *testing.T) {
	t.Parallel()

	opts := provider.QueryOptions{
		Projection:    []string{"id", "msg"},
		Selection:     "id > ?",
		SelectionArgs: []string{"3"},
		SortOrder:     "id DESC",
	}
	uri, got, err := DecodeQueryRequest(EncodeQueryRequest(itemURI, opts))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if uri != itemURI || !reflect.DeepEqual(got, opts) {
		t.Fatalf("decoded %q %+v", uri, got)
	}
}

func TestWriteRequestStringifiesValues(t *testing.T) {
	t.Parallel()

	req, err := decodeWriteRequest(EncodeWriteRequest(collectionURI, map[string]any{"msg": "x", "id": 3}, "id = ?", []string{"3"}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := map[string]any{"msg": "x", "id": "3"}; !reflect.DeepEqual(req.values, want) {
		t.Fatalf("values = %v, want %v", req.values, want)
	}
	if req.uri != collectionURI || req.selection != "id = ?" || !reflect.DeepEqual(req.selectionArgs, []string{"3"}) {
		t.Fatalf("request = %+v", req)
	}
}

func TestDecodeRejectsWrongMessageType(t *testing.T) {
	t.Parallel()

	if _, _, err := DecodeQueryRequest(NewWriteRequest()); err == nil {
		t.Fatal("expected type error for query request")
	}
	if _, _, err := DecodeResultSet(NewQueryRequest()); err == nil {
		t.Fatal("expected type error for result set")
	}
	if _, err := decodeWriteRequest(nil); err == nil {
		t.Fatal("expected error for nil write request")
	}
}
