package nntp

import "testing"

func TestParseOverviewLine(t *testing.T) {
	cases := []struct {
		name    string
		line    string
		wantErr bool
		want    OverviewLine
	}{
		{
			name: "full line with lines field",
			line: "12345\tRe: hello (1/3)\tJane Doe <jane@example.com>\tMon, 1 Jan 2024 00:00:00 +0000\t<abc123@example.com>\t<parent@example.com>\t4096\t80",
			want: OverviewLine{
				ArticleNum: 12345,
				Subject:    "Re: hello (1/3)",
				From:       "Jane Doe <jane@example.com>",
				Date:       "Mon, 1 Jan 2024 00:00:00 +0000",
				MessageID:  "<abc123@example.com>",
				References: "<parent@example.com>",
				Bytes:      4096,
				Lines:      80,
			},
		},
		{
			name: "exactly the required eight fields parses",
			line: "1\tsubj\tfrom\tdate\t<id@x>\t\t10\t5",
			want: OverviewLine{ArticleNum: 1, Subject: "subj", From: "from", Date: "date", MessageID: "<id@x>", Bytes: 10, Lines: 5},
		},
		{
			name:    "missing the lines field is below the required minimum",
			line:    "1\tsubj\tfrom\tdate\t<id@x>\t\t10",
			wantErr: true,
		},
		{
			name:    "too few fields",
			line:    "1\tsubj\tfrom",
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseOverviewLine(tc.line)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
