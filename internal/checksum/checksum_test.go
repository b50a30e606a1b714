package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != want {
		t.Errorf("Sum = %s, want %s", got, want)
	}
}

func TestJSON(t *testing.T) {
	type note struct {
		Title string `json:"title"`
	}
	a := JSON(note{Title: "Belanja"})
	if a == "" || a != JSON(note{Title: "Belanja"}) {
		t.Fatalf("JSON not stable: %q", a)
	}
	if a == JSON(note{Title: "Belanja!"}) {
		t.Error("different values share a checksum")
	}
	if got := JSON(func() {}); got != "" {
		t.Errorf("unencodable value = %q, want empty", got)
	}
}
