// Package address classifies log resource URIs into collection and item
// lookups.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.einride.tech/aip/resourcename"
)

const (
	// DefaultScheme prefixes URIs produced by a Router.
	DefaultScheme = "content"
	// DefaultAuthority names the provider that owns the log table.
	DefaultAuthority = "com.example.android.hilt.provider"
	// DefaultTable is the log table exposed through the router.
	DefaultTable = "logs"
)

// ErrUnrecognizedAddress indicates a URI that matches no registered pattern.
var ErrUnrecognizedAddress = errors.New("unrecognized address")

// Kind is the shape of a classified address.
type Kind int

const (
	// KindCollection addresses every row of the table.
	KindCollection Kind = iota + 1
	// KindItem addresses one row by id.
	KindItem
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCollection:
		return "collection"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// Address is the result of classifying a URI.
type Address struct {
	Kind Kind
	// ID is set for KindItem.
	ID int64
	// URI is the identifier the address was classified from.
	URI string
}

type route struct {
	pattern string
	kind    Kind
}

// Router matches URIs of the form <authority>/<table> and
// <authority>/<table>/<id>. Patterns are checked in registration order.
type Router struct {
	authority string
	table     string
	routes    []route
}

// NewRouter builds a router for authority and table. Empty values fall back
// to the defaults.
func NewRouter(authority, table string) *Router {
	authority = strings.TrimSpace(authority)
	if authority == "" {
		authority = DefaultAuthority
	}
	table = strings.Trim(strings.TrimSpace(table), "/")
	if table == "" {
		table = DefaultTable
	}
	return &Router{
		authority: authority,
		table:     table,
		routes: []route{
			{pattern: table, kind: KindCollection},
			{pattern: table + "/{log}", kind: KindItem},
		},
	}
}

// Authority returns the authority the router accepts.
func (r *Router) Authority() string {
	return r.authority
}

// CollectionURI returns the URI addressing every row.
func (r *Router) CollectionURI() string {
	return DefaultScheme + "://" + r.authority + "/" + r.table
}

// ItemURI returns the URI addressing the row with id.
func (r *Router) ItemURI(id int64) string {
	return r.CollectionURI() + "/" + strconv.FormatInt(id, 10)
}

// Classify maps uri to a collection or item address. It has no side effects.
func (r *Router) Classify(uri string) (Address, error) {
	authority, path, ok := splitURI(uri)
	if !ok || authority != r.authority {
		return Address{}, fmt.Errorf("%w: %q", ErrUnrecognizedAddress, uri)
	}

	for _, rt := range r.routes {
		if !resourcename.Match(rt.pattern, path) {
			continue
		}
		switch rt.kind {
		case KindCollection:
			return Address{Kind: KindCollection, URI: uri}, nil
		case KindItem:
			var rawID string
			if err := resourcename.Sscan(path, rt.pattern, &rawID); err != nil {
				return Address{}, fmt.Errorf("%w: %q: %v", ErrUnrecognizedAddress, uri, err)
			}
			id, err := strconv.ParseInt(rawID, 10, 64)
			if err != nil {
				return Address{}, fmt.Errorf("%w: %q: id %q is not an integer", ErrUnrecognizedAddress, uri, rawID)
			}
			return Address{Kind: KindItem, ID: id, URI: uri}, nil
		}
	}
	return Address{}, fmt.Errorf("%w: %q", ErrUnrecognizedAddress, uri)
}

// IsDescendant reports whether child lies at or beneath parent. Both are
// compared without scheme, query or fragment.
func IsDescendant(parent, child string) bool {
	parentAuthority, parentPath, ok := splitURI(parent)
	if !ok {
		return false
	}
	childAuthority, childPath, ok := splitURI(child)
	if !ok || parentAuthority != childAuthority {
		return false
	}
	return childPath == parentPath || strings.HasPrefix(childPath, parentPath+"/")
}

// splitURI drops an optional scheme, query and fragment and returns the
// authority and path. A single trailing slash is ignored.
func splitURI(uri string) (authority, path string, ok bool) {
	rest := strings.TrimSpace(uri)
	if idx := strings.Index(rest, "://"); idx >= 0 {
		if idx == 0 {
			return "", "", false
		}
		rest = rest[idx+len("://"):]
	}
	if idx := strings.IndexAny(rest, "?#"); idx >= 0 {
		rest = rest[:idx]
	}
	authority, path, found := strings.Cut(rest, "/")
	if !found || authority == "" {
		return "", "", false
	}
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "", "", false
	}
	return authority, path, true
}
