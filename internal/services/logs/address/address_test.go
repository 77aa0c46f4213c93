package address

import (
	"errors"
	"testing"
)

func TestClassifyCollection(t *testing.T) {
	t.Parallel()

	router := NewRouter("", "")
	for _, uri := range []string{
		"content://com.example.android.hilt.provider/logs",
		"com.example.android.hilt.provider/logs",
		"content://com.example.android.hilt.provider/logs/",
		"content://com.example.android.hilt.provider/logs?limit=3",
	} {
		t.Run(uri, func(t *testing.T) {
			got, err := router.Classify(uri)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if got.Kind != KindCollection {
				t.Fatalf("kind = %v, want %v", got.Kind, KindCollection)
			}
			if got.URI != uri {
				t.Fatalf("uri = %q, want %q", got.URI, uri)
			}
		})
	}
}

func TestClassifyItem(t *testing.T) {
	t.Parallel()

	router := NewRouter("", "")
	testCases := []struct {
		uri  string
		want int64
	}{
		{uri: "content://com.example.android.hilt.provider/logs/1", want: 1},
		{uri: "com.example.android.hilt.provider/logs/42", want: 42},
		{uri: "content://com.example.android.hilt.provider/logs/9223372036854775807", want: 9223372036854775807},
	}
	for _, tc := range testCases {
		t.Run(tc.uri, func(t *testing.T) {
			got, err := router.Classify(tc.uri)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			if got.Kind != KindItem {
				t.Fatalf("kind = %v, want %v", got.Kind, KindItem)
			}
			if got.ID != tc.want {
				t.Fatalf("id = %d, want %d", got.ID, tc.want)
			}
		})
	}
}

func TestClassifyRejectsUnknownShapes(t *testing.T) {
	t.Parallel()

	router := NewRouter("", "")
	for _, uri := range []string{
		"",
		"content://",
		"content://com.example.android.hilt.provider",
		"content://com.example.android.hilt.provider/",
		"content://other.provider/logs",
		"content://com.example.android.hilt.provider/users",
		"content://com.example.android.hilt.provider/logs/abc",
		"content://com.example.android.hilt.provider/logs/1/extra",
		"content://com.example.android.hilt.provider/logs/99999999999999999999",
		"://com.example.android.hilt.provider/logs",
	} {
		t.Run(uri, func(t *testing.T) {
			_, err := router.Classify(uri)
			if !errors.Is(err, ErrUnrecognizedAddress) {
				t.Fatalf("classify error = %v, want %v", err, ErrUnrecognizedAddress)
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	t.Parallel()

	router := NewRouter("", "")
	uri := router.ItemURI(7)
	first, err := router.Classify(uri)
	if err != nil {
		t.Fatalf("first classify: %v", err)
	}
	second, err := router.Classify(uri)
	if err != nil {
		t.Fatalf("second classify: %v", err)
	}
	if first != second {
		t.Fatalf("second classify = %+v, want %+v", second, first)
	}
}

func TestCustomAuthorityAndTable(t *testing.T) {
	t.Parallel()

	router := NewRouter("example.logs", "entries")
	if got, want := router.CollectionURI(), "content://example.logs/entries"; got != want {
		t.Fatalf("collection uri = %q, want %q", got, want)
	}
	got, err := router.Classify("content://example.logs/entries/3")
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got.Kind != KindItem || got.ID != 3 {
		t.Fatalf("address = %+v, want item 3", got)
	}
	if _, err := router.Classify(NewRouter("", "").CollectionURI()); !errors.Is(err, ErrUnrecognizedAddress) {
		t.Fatalf("default authority error = %v, want %v", err, ErrUnrecognizedAddress)
	}
}

func TestIsDescendant(t *testing.T) {
	t.Parallel()

	router := NewRouter("", "")
	collection := router.CollectionURI()
	if !IsDescendant(collection, collection) {
		t.Fatal("collection should contain itself")
	}
	if !IsDescendant(collection, router.ItemURI(5)) {
		t.Fatal("item should be a descendant of the collection")
	}
	if IsDescendant(router.ItemURI(5), collection) {
		t.Fatal("collection should not be a descendant of an item")
	}
	if IsDescendant(collection, "content://com.example.android.hilt.provider/logsx") {
		t.Fatal("sibling prefix should not be a descendant")
	}
}
