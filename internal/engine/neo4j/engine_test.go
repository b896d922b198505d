package neo4j

import (
	"math"
	"testing"
)

func TestFindMutatingClause(t *testing.T) {
	cases := []struct {
		cypher string
		want   bool
	}{
		{"MATCH (n) RETURN n", false},
		{"MATCH (n) DETACH DELETE n", true},
		{"CREATE (n:Product) RETURN n", true},
		{"MATCH (n) SET n.x = 1 RETURN n", true},
		{"MATCH (c:Customer) WHERE c.id = 'reset' RETURN c", false},
		{"MATCH (p:Product) WHERE p.name CONTAINS 'sunset' RETURN p", false},
		{"merge (n) return n", true},
	}
	for _, tc := range cases {
		_, got := findMutatingClause(tc.cypher)
		if got != tc.want {
			t.Fatalf("findMutatingClause(%q) = %v, want %v", tc.cypher, got, tc.want)
		}
	}
}

func TestConvertValueScrubsNonFinite(t *testing.T) {
	if convertValue(math.NaN()) != nil {
		t.Fatal("NaN should convert to nil")
	}
	list := convertValue([]any{math.Inf(1), "ok"}).([]any)
	if list[0] != nil || list[1] != "ok" {
		t.Fatalf("list = %#v", list)
	}
}
