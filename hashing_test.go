package caas

import "testing"

func TestGenesisHashShape(t *testing.T) {
	if len(GenesisHash) != 64 {
		t.Fatalf("GenesisHash must be 64 hex chars, got %d", len(GenesisHash))
	}
	if !isValidHexHash(GenesisHash) {
		t.Fatal("GenesisHash must be a valid hex hash")
	}
	for _, c := range GenesisHash {
		if c != '0' {
			t.Fatalf("GenesisHash must be all zeros, found %q", c)
		}
	}
}

func TestHashHexPairHashesHexRepresentation(t *testing.T) {
	left := sha256Hex([]byte("a"))
	right := sha256Hex([]byte("b"))

	got := hashHexPair(left, right)
	want := sha256Hex([]byte(left + right))

	if got != want {
		t.Fatalf("hashHexPair must hash the concatenated hex strings, got %s want %s", got, want)
	}
}

func TestSortedStringsDoesNotMutateInput(t *testing.T) {
	in := []string{"c", "a", "b"}
	out := sortedStrings(in)

	if in[0] != "c" {
		t.Fatal("sortedStrings must not mutate its input")
	}
	if out[0] != "a" || out[1] != "b" || out[2] != "c" {
		t.Fatalf("sortedStrings did not sort correctly: %v", out)
	}
}

func TestIsValidHexHash(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{GenesisHash, true},
		{"", false},
		{"abc", false},
		{"G" + GenesisHash[1:], false},
		{sha256Hex([]byte("x")), true},
	}
	for _, c := range cases {
		if got := isValidHexHash(c.in); got != c.want {
			t.Errorf("isValidHexHash(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
