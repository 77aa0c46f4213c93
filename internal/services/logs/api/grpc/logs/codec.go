package logs

import (
	"fmt"
	"time"

	"github.com/louisbranch/logsprovider/internal/services/logs/provider"
	"github.com/louisbranch/logsprovider/internal/services/logs/storage"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Field names of the logs.v1 messages.
const (
	fieldURI           = "uri"
	fieldProjection    = "projection"
	fieldSelection     = "selection"
	fieldSelectionArgs = "selection_args"
	fieldSortOrder     = "sort_order"
	fieldValues        = "values"
	fieldRows          = "rows"
	fieldID            = "id"
	fieldMsg           = "msg"
	fieldTimestampMS   = "timestamp_ms"
	fieldCount         = "count"
)

// EncodeQueryRequest builds a QueryRequest. Options are carried for
// compatibility and ignored by the server.
func EncodeQueryRequest(uri string, opts provider.QueryOptions) *dynamicpb.Message {
	m := NewQueryRequest()
	setString(m, fieldURI, uri)
	setStrings(m, fieldProjection, opts.Projection)
	setString(m, fieldSelection, opts.Selection)
	setStrings(m, fieldSelectionArgs, opts.SelectionArgs)
	setString(m, fieldSortOrder, opts.SortOrder)
	return m
}

// DecodeQueryRequest reads the URI and options of a QueryRequest.
func DecodeQueryRequest(in *dynamicpb.Message) (string, provider.QueryOptions, error) {
	if err := expectType(in, queryRequestDesc); err != nil {
		return "", provider.QueryOptions{}, err
	}
	opts := provider.QueryOptions{
		Projection:    getStrings(in, fieldProjection),
		Selection:     getString(in, fieldSelection),
		SelectionArgs: getStrings(in, fieldSelectionArgs),
		SortOrder:     getString(in, fieldSortOrder),
	}
	return getString(in, fieldURI), opts, nil
}

// EncodeResultSet builds a QueryResponse.
func EncodeResultSet(result *provider.ResultSet) *dynamicpb.Message {
	out := NewQueryResponse()
	setString(out, fieldURI, result.URI)
	if result.Len() == 0 {
		return out
	}
	rows := out.Mutable(fieldOf(out, fieldRows)).List()
	for _, entry := range result.Rows {
		row := rows.NewElement().Message()
		row.Set(fieldOf(row, fieldID), protoreflect.ValueOfInt64(entry.ID))
		row.Set(fieldOf(row, fieldMsg), protoreflect.ValueOfString(entry.Msg))
		row.Set(fieldOf(row, fieldTimestampMS), protoreflect.ValueOfInt64(entry.Timestamp.UnixMilli()))
		rows.Append(protoreflect.ValueOfMessage(row))
	}
	return out
}

// DecodeResultSet reads a QueryResponse.
func DecodeResultSet(out *dynamicpb.Message) (string, []storage.Log, error) {
	if err := expectType(out, queryResponseDesc); err != nil {
		return "", nil, err
	}
	list := out.Get(fieldOf(out, fieldRows)).List()
	rows := make([]storage.Log, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		row := list.Get(i).Message()
		rows = append(rows, storage.Log{
			ID:        row.Get(fieldOf(row, fieldID)).Int(),
			Msg:       row.Get(fieldOf(row, fieldMsg)).String(),
			Timestamp: time.UnixMilli(row.Get(fieldOf(row, fieldTimestampMS)).Int()).UTC(),
		})
	}
	return getString(out, fieldURI), rows, nil
}

// EncodeWriteRequest builds the WriteRequest shared by Insert, Update and
// Delete. Values are rendered with fmt's default format.
func EncodeWriteRequest(uri string, values map[string]any, selection string, selectionArgs []string) *dynamicpb.Message {
	m := NewWriteRequest()
	setString(m, fieldURI, uri)
	if len(values) > 0 {
		entries := m.Mutable(fieldOf(m, fieldValues)).Map()
		for key, value := range values {
			entries.Set(protoreflect.ValueOfString(key).MapKey(), protoreflect.ValueOfString(fmt.Sprint(value)))
		}
	}
	setString(m, fieldSelection, selection)
	setStrings(m, fieldSelectionArgs, selectionArgs)
	return m
}

// writeRequest is a decoded WriteRequest.
type writeRequest struct {
	uri           string
	values        map[string]any
	selection     string
	selectionArgs []string
}

func decodeWriteRequest(in *dynamicpb.Message) (writeRequest, error) {
	if err := expectType(in, writeRequestDesc); err != nil {
		return writeRequest{}, err
	}
	req := writeRequest{
		uri:           getString(in, fieldURI),
		values:        map[string]any{},
		selection:     getString(in, fieldSelection),
		selectionArgs: getStrings(in, fieldSelectionArgs),
	}
	in.Get(fieldOf(in, fieldValues)).Map().Range(func(k protoreflect.MapKey, v protoreflect.Value) bool {
		req.values[k.String()] = v.String()
		return true
	})
	return req, nil
}

func expectType(m *dynamicpb.Message, want protoreflect.MessageDescriptor) error {
	if m == nil {
		return fmt.Errorf("nil %s", want.FullName())
	}
	if got := m.Descriptor().FullName(); got != want.FullName() {
		return fmt.Errorf("message is %s, want %s", got, want.FullName())
	}
	return nil
}

func setString(m *dynamicpb.Message, name, value string) {
	if value != "" {
		m.Set(fieldOf(m, name), protoreflect.ValueOfString(value))
	}
}

func getString(m *dynamicpb.Message, name string) string {
	return m.Get(fieldOf(m, name)).String()
}

func setStrings(m *dynamicpb.Message, name string, values []string) {
	if len(values) == 0 {
		return
	}
	list := m.Mutable(fieldOf(m, name)).List()
	for _, value := range values {
		list.Append(protoreflect.ValueOfString(value))
	}
}

func getStrings(m *dynamicpb.Message, name string) []string {
	list := m.Get(fieldOf(m, name)).List()
	if list.Len() == 0 {
		return nil
	}
	out := make([]string, 0, list.Len())
	for i := 0; i < list.Len(); i++ {
		out = append(out, list.Get(i).String())
	}
	return out
}
