// Package catalog loads the embedded message catalogs and formats
// caller-facing messages through x/text.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// BaseLocale is the locale every other locale falls back to.
	BaseLocale = "en-US"
	// UnknownKey is formatted when a key exists in no locale.
	UnknownKey = "UNKNOWN"
)

//go:embed locales/*/*.yaml
var embeddedFS embed.FS

var defaultBundle = mustLoadAndRegisterEmbedded()

// Default returns the process-wide embedded bundle.
func Default() *Bundle {
	return defaultBundle
}

// Bundle holds the messages of every loaded locale.
type Bundle struct {
	locales map[string]map[string]string
	tags    []language.Tag
	names   []string
	matcher language.Matcher
}

// LoadEmbedded loads the catalogs compiled into this package.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads locales/<locale>/<namespace>.yaml files from catalogFS.
func LoadFromFS(catalogFS fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(catalogFS, "locales/*/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{locales: map[string]map[string]string{}}
	for _, p := range paths {
		data, err := fs.ReadFile(catalogFS, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		file, err := parseFile(data)
		if err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		if want := path.Base(path.Dir(p)); file.locale != want {
			return nil, fmt.Errorf("catalog %s: locale %q must match path locale %q", p, file.locale, want)
		}
		messages, ok := b.locales[file.locale]
		if !ok {
			messages = map[string]string{}
			b.locales[file.locale] = messages
		}
		for key, value := range file.messages {
			if _, dup := messages[key]; dup {
				return nil, fmt.Errorf("catalog %s: duplicate key %q in locale %q", p, key, file.locale)
			}
			messages[key] = value
		}
	}
	if _, ok := b.locales[BaseLocale]; !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}

	// The base locale goes first so the matcher prefers it on ties.
	b.names = append(b.names, BaseLocale)
	for name := range b.locales {
		if name != BaseLocale {
			b.names = append(b.names, name)
		}
	}
	sort.Strings(b.names[1:])
	for _, name := range b.names {
		tag, err := language.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", name, err)
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Register publishes every message to the x/text default catalog under
// its locale tag and that tag's base language.
func (b *Bundle) Register() error {
	for i, name := range b.names {
		tags := []language.Tag{b.tags[i]}
		if base, conf := b.tags[i].Base(); conf != language.No {
			if baseTag, err := language.Parse(base.String()); err == nil && baseTag.String() != b.tags[i].String() {
				tags = append(tags, baseTag)
			}
		}
		for key, value := range b.locales[name] {
			for _, tag := range tags {
				if err := message.SetString(tag, key, value); err != nil {
					return fmt.Errorf("register %s/%s: %w", name, key, err)
				}
			}
		}
	}
	return nil
}

// HasLocale reports whether locale was loaded.
func (b *Bundle) HasLocale(locale string) bool {
	_, ok := b.locales[strings.TrimSpace(locale)]
	return ok
}

// Locales returns the loaded locales, base locale first.
func (b *Bundle) Locales() []string {
	return append([]string(nil), b.names...)
}

// For resolves an Accept-Language style locale list to the closest loaded
// catalog. Empty or unmatched input resolves to BaseLocale.
func (b *Bundle) For(locale string) *Catalog {
	index := 0
	if requested, _, err := language.ParseAcceptLanguage(strings.TrimSpace(locale)); err == nil && len(requested) > 0 {
		if _, i, conf := b.matcher.Match(requested...); conf != language.No {
			index = i
		}
	}
	return &Catalog{bundle: b, locale: b.names[index], tag: b.tags[index]}
}

// Catalog formats messages for one resolved locale.
type Catalog struct {
	bundle *Bundle
	locale string
	tag    language.Tag
}

// Locale returns the resolved locale identifier.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders key in the catalog's locale and fills {name}
// placeholders from metadata. Missing keys fall back to BaseLocale, then
// to UnknownKey.
func (c *Catalog) Format(key string, metadata map[string]string) string {
	fallback, ok := c.bundle.locales[c.locale][key]
	if !ok {
		if fallback, ok = c.bundle.locales[BaseLocale][key]; !ok {
			key = UnknownKey
			fallback = c.bundle.locales[BaseLocale][UnknownKey]
		}
	}
	text := message.NewPrinter(c.tag).Sprintf(message.Key(key, fallback))
	if len(metadata) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(metadata))
	for name, value := range metadata {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func mustLoadAndRegisterEmbedded() *Bundle {
	b, err := LoadEmbedded()
	if err != nil {
		panic(err)
	}
	if err := b.Register(); err != nil {
		panic(err)
	}
	return b
}

type catalogFile struct {
	locale    string
	namespace string
	messages  map[string]string
}

// parseFile reads the flat quoted-yaml subset the catalogs are written in.
func parseFile(data []byte) (catalogFile, error) {
	out := catalogFile{messages: map[string]string{}}
	inMessages := false
	for _, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var err error
		switch {
		case strings.HasPrefix(line, "locale:"):
			out.locale, err = strconv.Unquote(strings.TrimSpace(strings.TrimPrefix(line, "locale:")))
		case strings.HasPrefix(line, "namespace:"):
			out.namespace, err = strconv.Unquote(strings.TrimSpace(strings.TrimPrefix(line, "namespace:")))
		case line == "messages:":
			inMessages = true
		case inMessages:
			var key, value string
			key, value, err = parseEntry(line)
			if err == nil {
				if strings.TrimSpace(key) == "" {
					return catalogFile{}, fmt.Errorf("blank message key")
				}
				out.messages[key] = value
			}
		default:
			return catalogFile{}, fmt.Errorf("unexpected line %q", line)
		}
		if err != nil {
			return catalogFile{}, fmt.Errorf("line %q: %w", line, err)
		}
	}
	switch {
	case out.locale == "":
		return catalogFile{}, fmt.Errorf("missing locale")
	case out.namespace == "":
		return catalogFile{}, fmt.Errorf("missing namespace")
	case len(out.messages) == 0:
		return catalogFile{}, fmt.Errorf("missing messages")
	}
	return out, nil
}

func parseEntry(line string) (string, string, error) {
	keyToken, err := strconv.QuotedPrefix(line)
	if err != nil {
		return "", "", fmt.Errorf("expected quoted key: %w", err)
	}
	key, err := strconv.Unquote(keyToken)
	if err != nil {
		return "", "", err
	}
	rest := strings.TrimSpace(line[len(keyToken):])
	if !strings.HasPrefix(rest, ":") {
		return "", "", fmt.Errorf("missing ':' separator")
	}
	value, err := strconv.Unquote(strings.TrimSpace(rest[1:]))
	if err != nil {
		return "", "", fmt.Errorf("unquote value: %w", err)
	}
	return key, value, nil
}
