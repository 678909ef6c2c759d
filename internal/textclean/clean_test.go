package textclean

import "testing"

func TestClean(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello world", want: "hello world"},
		{name: "std color", in: "\x1905alice\x1c: hi", want: "alice: hi"},
		{name: "fg with attrs", in: "\x19F*_12bold\x1c", want: "bold"},
		{name: "extended fg", in: "\x19F@00214nick", want: "nick"},
		{name: "fg and bg", in: "\x19*03,05x\x19*@00001~@00002y", want: "xy"},
		{name: "bar code", in: "\x19bFtext", want: "text"},
		{name: "attributes", in: "\x1a*bold\x1b*plain", want: "boldplain"},
		{name: "ansi escape", in: "\x1b[1mloud\x1b[0m", want: "loud"},
		{name: "control chars", in: "a\tb\x07c", want: "a bc"},
		{name: "truncated code", in: "tail\x19F", want: "tail"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.in); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
