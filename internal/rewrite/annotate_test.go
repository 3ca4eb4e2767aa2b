package rewrite_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"deqpkit/internal/rewrite"
)

func TestAnnotator(t *testing.T) {
	in := `goog.scope(function() {
    sglr.add = function(a, b) {
        return a + b;
    };

    /**
     * @param {number} x
     */
    sglr.check = function(x) {
        if (x < 0) throw new Error('neg');
    };

    sglr.Mode = {
        A: 0
    };
});
`
	want := `goog.scope(function() {
    
    /**
    * @param {number} a
    * @param {number} b
    * @return {number}
    */
    sglr.add = function(a, b) {
        return a + b;
    };

    /**
     * @param {number} x
     */
    sglr.check = function(x) {
        if (x < 0) throw new Error('neg');
    };

    
    /**
    * @enum
    */
    sglr.Mode = {
        A: 0
    };
});
`
	got, n, err := rewrite.Annotator{Namespace: "sglr"}.Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Annotator mismatch (-want +got):\n%s", diff)
	}
	if n != 2 {
		t.Fatalf("inserted %d comments, want 2", n)
	}
}

func TestAnnotatorThrows(t *testing.T) {
	in := "ns.f = function() { throw new Error('x'); };"
	got, _, err := rewrite.Annotator{Namespace: "ns", Indent: "  "}.Apply(in)
	if err != nil {
		t.Fatal(err)
	}
	want := "\n  /**\n  * @throws {Error}\n  */\n  ns.f = function() { throw new Error('x'); };"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAnnotatorRequiresNamespace(t *testing.T) {
	if _, _, err := (rewrite.Annotator{}).Apply("x"); err == nil {
		t.Fatal("expected error for empty namespace")
	}
}
