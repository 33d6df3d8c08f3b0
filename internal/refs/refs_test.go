package refs

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCollect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "two references",
			text: "[[Lightning Bolt]] and [[Counterspell]]",
			want: []string{"Lightning Bolt", "Counterspell"},
		},
		{
			name: "non-greedy",
			text: "[[A]] [[B]]",
			want: []string{"A", "B"},
		},
		{
			name: "empty capture",
			text: "look: [[]]",
			want: []string{""},
		},
		{
			name: "surrounding spaces kept",
			text: "[[ your card here ]]",
			want: []string{" your card here "},
		},
		{
			name: "unterminated tail",
			text: "[[Opt]] then [[Brainstorm",
			want: []string{"Opt"},
		},
		{
			name: "abandoned opener",
			text: "[[Island [[Forest]] [[Swamp]]",
			want: []string{"Forest", "Swamp"},
		},
		{
			name: "stray closers",
			text: "]] [[Shock]] ]]",
			want: []string{"Shock"},
		},
		{
			name: "no line crossing",
			text: "[[Dark\nRitual]] [[Duress]]",
			want: []string{"Duress"},
		},
		{
			name: "extra brackets stay in capture",
			text: "[[[Bolt]]]",
			want: []string{"[Bolt"},
		},
		{
			name: "multi-byte",
			text: "🔥 [[Jötun Grunt]] 🔥",
			want: []string{"Jötun Grunt"},
		},
		{
			name: "nothing",
			text: "plain text",
			want: nil,
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collect(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Collect(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestAllWellFormedCount(t *testing.T) {
	for n := 0; n < 20; n++ {
		var sb strings.Builder
		var want []string
		for i := 0; i < n; i++ {
			name := strings.Repeat("x", i+1)
			want = append(want, name)
			sb.WriteString("text ")
			sb.WriteString("[[" + name + "]]")
		}
		got := Collect(sb.String())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("n=%d mismatch (-want +got):\n%s", n, diff)
		}
	}
}

func TestAllRestartable(t *testing.T) {
	seq := All("[[a]] [[b]] [[c]]")
	for round := 0; round < 2; round++ {
		var got []string
		for ref := range seq {
			got = append(got, ref)
		}
		if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
			t.Errorf("round %d mismatch (-want +got):\n%s", round, diff)
		}
	}
}

func TestAllStopsEarly(t *testing.T) {
	var got []string
	for ref := range All("[[a]] [[b]] [[c]]") {
		got = append(got, ref)
		if len(got) == 2 {
			break
		}
	}
	if diff := cmp.Diff([]string{"a", "b"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAllNoPanic(t *testing.T) {
	for _, text := range []string{
		"[", "[[", "]]", "[[]", "[]]", "]][[", "[[[[", "]]]]", "[[\n]]", "[[\x00]]",
		"[[a]][[", "\xff[[\xfe]]",
	} {
		t.Run(text, func(t *testing.T) {
			_ = Collect(text)
		})
	}
}
