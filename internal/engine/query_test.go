package engine

import "testing"

func TestBuildSQLStatement(t *testing.T) {
	cases := []struct {
		name      string
		where     string
		groupBy   []string
		having    string
		orderBy   []string
		direction []string
		want      string
	}{
		{
			name: "bare",
			want: `SELECT * FROM "t" `,
		},
		{
			name:      "all clauses",
			where:     "name = 'Bob'",
			groupBy:   []string{"class"},
			having:    "COUNT(class) > 4",
			orderBy:   []string{"created_at", "name"},
			direction: []string{"DESC", "ASC"},
			want:      `SELECT * FROM "t" WHERE name = 'Bob' GROUP BY class HAVING COUNT(class) > 4 ORDER BY created_at DESC, name ASC`,
		},
		{
			name:  "where only",
			where: "age > 3",
			want:  `SELECT * FROM "t" WHERE age > 3`,
		},
		{
			name:   "having without group by",
			having: "COUNT(class) > 4",
			want:   `SELECT * FROM "t" `,
		},
		{
			name:    "group by several columns",
			groupBy: []string{"class", "tutor"},
			want:    `SELECT * FROM "t" GROUP BY class, tutor`,
		},
		{
			name:    "group by and order by",
			groupBy: []string{"class"},
			orderBy: []string{"class"},
			want:    `SELECT * FROM "t" GROUP BY class ORDER BY class ASC`,
		},
		{
			name:      "missing directions default to ASC",
			orderBy:   []string{"a", "b", "c"},
			direction: []string{"DESC", ""},
			want:      `SELECT * FROM "t" ORDER BY a DESC, b ASC, c ASC`,
		},
		{
			name:      "empty order by entries are skipped",
			orderBy:   []string{"", "b"},
			direction: []string{"DESC", "DESC"},
			want:      `SELECT * FROM "t" ORDER BY b DESC`,
		},
		{
			name:    "only empty order by entries",
			orderBy: []string{""},
			want:    `SELECT * FROM "t" `,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := BuildSQLStatement("t", tc.where, tc.groupBy, tc.having, tc.orderBy, tc.direction)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestQuerySpec_SQL(t *testing.T) {
	qs := QuerySpec{Table: "default__people", Where: "age > 18", OrderBy: []string{"age"}}
	want := `SELECT * FROM "default__people" WHERE age > 18 ORDER BY age ASC`
	if got := qs.SQL(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestConvertStringToArray(t *testing.T) {
	got := ConvertStringToArray(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}

	s := "name"
	got = ConvertStringToArray(&s)
	if len(got) != 1 || got[0] != "name" {
		t.Fatalf("expected [name], got %v", got)
	}

	empty := ""
	if got := ConvertStringToArray(&empty); len(got) != 1 {
		t.Fatalf("expected one empty entry, got %v", got)
	}
}
