package querycache

import (
	"testing"
)

func TestBuildKey_SortsParameterNames(t *testing.T) {
	t.Parallel()

	a := BuildKey(Params{"page": 1, "pageSize": 10, "filter": "cats"}, "")
	b := BuildKey(Params{"filter": "cats", "pageSize": 10, "page": 1}, "")

	if a != b {
		t.Errorf("keys differ for identical params: %q vs %q", a, b)
	}
	if a != "filter=cats&page=1&pageSize=10" {
		t.Errorf("BuildKey() = %q, want filter=cats&page=1&pageSize=10", a)
	}
}

func TestBuildKey_PartitionPrefix(t *testing.T) {
	t.Parallel()

	key := BuildKey(Params{"page": 1}, "gallery")
	if key != "gallery-page=1" {
		t.Errorf("BuildKey() = %q, want gallery-page=1", key)
	}

	bare := BuildKey(Params{"page": 1}, "")
	if bare != "page=1" {
		t.Errorf("BuildKey() without partition = %q, want page=1", bare)
	}
}

func TestBuildKey_DistinctParamsDistinctKeys(t *testing.T) {
	t.Parallel()

	a := BuildKey(Params{"page": 1, "pageSize": 10}, "")
	b := BuildKey(Params{"page": 2, "pageSize": 10}, "")
	c := BuildKey(Params{"page": 1, "pageSize": 20}, "")

	if a == b || a == c || b == c {
		t.Errorf("expected distinct keys, got %q, %q, %q", a, b, c)
	}
}

func TestBuildKey_ValueKinds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"string", Params{"q": "sunset"}, "q=sunset"},
		{"bool", Params{"desc": true}, "desc=true"},
		{"int", Params{"page": 3}, "page=3"},
		{"int64", Params{"since": int64(1700000000)}, "since=1700000000"},
		{"float", Params{"ratio": 1.5}, "ratio=1.5"},
		{"whole float", Params{"ratio": 2.0}, "ratio=2"},
		{"string slice", Params{"tags": []string{"a", "b"}}, "tags=a,b"},
		{"int slice", Params{"ids": []int{1, 2, 3}}, "ids=1,2,3"},
		{"mixed slice", Params{"mix": []any{"a", 1, true}}, "mix=a,1,true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := BuildKey(tt.params, "")
			if got != tt.want {
				t.Errorf("BuildKey(%v) = %q, want %q", tt.params, got, tt.want)
			}
		})
	}
}

func TestBuildKey_EscapesDelimiters(t *testing.T) {
	t.Parallel()

	t.Run("value containing separators", func(t *testing.T) {
		t.Parallel()

		a := BuildKey(Params{"a": "1&b=2"}, "")
		b := BuildKey(Params{"a": "1", "b": "2"}, "")
		if a == b {
			t.Errorf("embedded separators collided: both %q", a)
		}
	})

	t.Run("slice versus joined string", func(t *testing.T) {
		t.Parallel()

		a := BuildKey(Params{"v": []string{"x", "y"}}, "")
		b := BuildKey(Params{"v": "x,y"}, "")
		if a == b {
			t.Errorf("slice and comma string collided: both %q", a)
		}
	})

	t.Run("dashed name versus partition", func(t *testing.T) {
		t.Parallel()

		a := BuildKey(Params{"x-y": 1}, "")
		b := BuildKey(Params{"y": 1}, "x")
		if a == b {
			t.Errorf("dashed name and partition collided: both %q", a)
		}
	})

	t.Run("name containing equals", func(t *testing.T) {
		t.Parallel()

		a := BuildKey(Params{"a=1&b": "2"}, "")
		b := BuildKey(Params{"a": "1", "b": "2"}, "")
		if a == b {
			t.Errorf("structured name collided: both %q", a)
		}
	})

	t.Run("escaping stays deterministic", func(t *testing.T) {
		t.Parallel()

		first := BuildKey(Params{"q": "a&b=c,d-e%f"}, "p-q")
		second := BuildKey(Params{"q": "a&b=c,d-e%f"}, "p-q")
		if first != second {
			t.Errorf("escaped keys differ: %q vs %q", first, second)
		}
	})
}

func TestPartitionPrefix(t *testing.T) {
	t.Parallel()

	key := BuildKey(Params{"page": 1}, "x-y")
	prefix := PartitionPrefix("x-y")
	if len(key) < len(prefix) || key[:len(prefix)] != prefix {
		t.Errorf("key %q does not start with prefix %q", key, prefix)
	}

	other := BuildKey(Params{"page": 1}, "x")
	if len(other) >= len(prefix) && other[:len(prefix)] == prefix {
		t.Errorf("partition %q matched prefix of partition %q: %q", "x", "x-y", other)
	}
}

func TestBuildKey_EmptyParams(t *testing.T) {
	t.Parallel()

	if got := BuildKey(Params{}, ""); got != "" {
		t.Errorf("BuildKey(empty) = %q, want empty string", got)
	}
	if got := BuildKey(nil, "gallery"); got != "gallery-" {
		t.Errorf("BuildKey(nil, gallery) = %q, want gallery-", got)
	}
}

func TestBuildKey_Deterministic(t *testing.T) {
	t.Parallel()

	params := Params{"page": 1, "pageSize": 10, "tags": []string{"x", "y"}}
	first := BuildKey(params, "feed")
	for i := 0; i < 50; i++ {
		if got := BuildKey(params, "feed"); got != first {
			t.Fatalf("BuildKey() not deterministic: %q vs %q", got, first)
		}
	}
}
