package extract

import (
	"reflect"
	"testing"
)

func TestExtractDocCards(t *testing.T) {
	t.Parallel()

	page := `<div class="cards">
	  <div class="card">
	    <h3> Operating Instructions </h3>
	    <ul>
	      <li class="language" data-url="/downloads/oi-de.pdf">DE</li>
	      <li class="language selected" data-url="/downloads/oi-en.pdf">EN</li>
	    </ul>
	  </div>
	  <div class="card">
	    <h3>Safety Manual</h3>
	    <ul>
	      <li class="language selected" data-url="downloads/sm-en.pdf">EN</li>
	    </ul>
	  </div>
	  <div class="card">
	    <h3>Certificate</h3>
	    <ul>
	      <li class="language selected" data-url="https://cdn.vega.com/cert.pdf">EN</li>
	    </ul>
	  </div>
	  <div class="card">
	    <h3>No Download</h3>
	  </div>
	</div>`

	ctx := newCtx(t, page)
	n, err := extractDocCards(ctx, spec("doc_cards", map[string]any{}))
	if err != nil {
		t.Fatalf("extractDocCards: %v", err)
	}
	if n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}

	want := map[string]any{
		"Operating Instructions": "https://www.vega.com/downloads/oi-en.pdf",
		"Safety Manual":          "https://www.vega.com/downloads/sm-en.pdf",
		"Certificate":            "https://cdn.vega.com/cert.pdf",
	}
	if got := ctx.Accum.Normalize()["Downloads"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("Downloads = %#v", got)
	}
}

func TestExtractDocCards_NoContainer(t *testing.T) {
	t.Parallel()

	ctx := newCtx(t, `<p>no cards</p>`)
	if n, err := extractDocCards(ctx, spec("doc_cards", map[string]any{})); err != nil || n != 0 {
		t.Fatalf("got %d, %v", n, err)
	}
}
